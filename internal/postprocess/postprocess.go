// Package postprocess finalizes a named draft into the Client snapshot consumed by the
// templates: unused anonymous models are pruned, import lists are computed, and models,
// services and schemas are sorted by export name.
package postprocess

import (
	"io"
	"log/slog"
	"sort"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

// Option configures Finalize.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger for pruning decisions.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Finalize returns the Client for d. d is not modified, and the Client shares no memory
// with it.
func Finalize(d *ir.Draft, opts ...Option) *ir.Client {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger := cfg.logger.With("component", "postprocess")

	work := d.Clone()
	work.Models = prune(work, logger)

	for _, m := range work.Models {
		m.Imports = imports(m.Name, ir.References(m))
	}
	for _, s := range work.Services {
		var refs []string
		for i := range s.Operations {
			ir.WalkOperation(&s.Operations[i], func(n *ir.Model) {
				if n.Kind == ir.KindReference {
					refs = append(refs, n.Ref)
				}
			})
		}
		s.Imports = imports("", refs)
	}

	sort.SliceStable(work.Models, func(i, j int) bool { return work.Models[i].Name < work.Models[j].Name })
	sort.SliceStable(work.Services, func(i, j int) bool { return work.Services[i].Name < work.Services[j].Name })
	sort.SliceStable(work.Schemas, func(i, j int) bool { return work.Schemas[i].Name < work.Schemas[j].Name })

	c := &ir.Client{
		Server:   work.Server,
		Version:  work.Version,
		Models:   make([]ir.Model, 0, len(work.Models)),
		Services: make([]ir.Service, 0, len(work.Services)),
		Schemas:  make([]ir.Schema, 0, len(work.Schemas)),
	}
	for _, m := range work.Models {
		c.Models = append(c.Models, *m)
	}
	for _, s := range work.Services {
		c.Services = append(c.Services, *s)
	}
	for _, s := range work.Schemas {
		c.Schemas = append(c.Schemas, *s)
	}
	logger.Info("client finalized",
		slog.Int("models", len(c.Models)),
		slog.Int("services", len(c.Services)),
		slog.Int("schemas", len(c.Schemas)))
	return c
}

// prune drops anonymous models that no operation and no retained model references.
// Named models are always kept.
func prune(d *ir.Draft, logger *slog.Logger) []*ir.Model {
	byName := make(map[string]*ir.Model, len(d.Models))
	for _, m := range d.Models {
		byName[m.Name] = m
	}
	reachable := map[string]struct{}{}
	var queue []string
	mark := func(name string) {
		if _, ok := reachable[name]; ok {
			return
		}
		reachable[name] = struct{}{}
		queue = append(queue, name)
	}
	for _, m := range d.Models {
		if !m.Anonymous {
			mark(m.Name)
		}
	}
	for _, s := range d.Services {
		for i := range s.Operations {
			ir.WalkOperation(&s.Operations[i], func(n *ir.Model) {
				if n.Kind == ir.KindReference {
					mark(n.Ref)
				}
			})
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		m, ok := byName[name]
		if !ok {
			continue
		}
		for _, r := range ir.References(m) {
			mark(r)
		}
	}

	kept := make([]*ir.Model, 0, len(d.Models))
	for _, m := range d.Models {
		if _, ok := reachable[m.Name]; ok {
			kept = append(kept, m)
			continue
		}
		logger.Debug("pruned unused model", slog.String("name", m.Name), slog.String("pointer", m.Pointer))
	}
	return kept
}

// imports returns refs sorted and without duplicates, leaving out self.
func imports(self string, refs []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range refs {
		if r == self {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

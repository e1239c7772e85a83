// Package resolve turns a parsed draft into a reference-complete one: structurally
// identical anonymous models are merged, every schema reference is checked against the
// model arena, and references that close a cycle are marked lazy.
package resolve

import (
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// Option configures Resolve.
type Option func(*resolver)

// WithLogger sets the logger for merge and cycle decisions.
func WithLogger(l *slog.Logger) Option {
	return func(r *resolver) { r.logger = l }
}

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

type resolver struct {
	logger *slog.Logger
	draft  *ir.Draft
	index  map[string]*ir.Model
	states map[string]visitState
	lazy   int
}

// Resolve returns a new draft in which every reference targets a model of the draft.
// It fails with an UnresolvedReference error on the first dangling pointer.
func Resolve(d *ir.Draft, opts ...Option) (*ir.Draft, error) {
	r := &resolver{draft: d.Clone()}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.logger = r.logger.With("component", "resolver")

	merged := r.dedupe()
	r.index = make(map[string]*ir.Model, len(r.draft.Models))
	for _, m := range r.draft.Models {
		if _, dup := r.index[m.Pointer]; !dup {
			r.index[m.Pointer] = m
		}
	}

	r.states = make(map[string]visitState, len(r.index))
	for _, m := range r.draft.Models {
		if err := r.visit(m); err != nil {
			return nil, err
		}
	}
	for _, s := range r.draft.Services {
		for i := range s.Operations {
			op := &s.Operations[i]
			var err error
			ir.WalkOperation(op, func(n *ir.Model) {
				if err != nil || n.Kind != ir.KindReference {
					return
				}
				if _, ok := r.index[n.Ref]; !ok {
					err = generrors.Unresolved(n.Ref, n.Pointer)
				}
			})
			if err != nil {
				return nil, err
			}
		}
	}

	r.logger.Debug("references resolved",
		slog.Int("models", len(r.draft.Models)),
		slog.Int("merged", merged),
		slog.Int("lazy", r.lazy))
	return r.draft, nil
}

// visit walks the references of m depth-first. A reference to a model that is still being
// visited closes a cycle and is marked lazy instead of being followed.
func (r *resolver) visit(m *ir.Model) error {
	switch r.states[m.Pointer] {
	case stateVisiting, stateDone:
		return nil
	}
	r.states[m.Pointer] = stateVisiting

	var refs []*ir.Model
	ir.Walk(m, func(n *ir.Model) {
		if n.Kind == ir.KindReference {
			refs = append(refs, n)
		}
	})
	for _, ref := range refs {
		target, ok := r.index[ref.Ref]
		if !ok {
			return generrors.Unresolved(ref.Ref, ref.Pointer)
		}
		switch r.states[target.Pointer] {
		case stateVisiting:
			ref.Lazy = true
			r.lazy++
			r.logger.Debug("lazy reference", slog.String("from", ref.Pointer), slog.String("to", ref.Ref))
		case stateDone:
		default:
			if err := r.visit(target); err != nil {
				return err
			}
		}
	}
	r.states[m.Pointer] = stateDone
	return nil
}

// dedupe merges anonymous models with identical shape into the first one seen and repoints
// references to the dropped ones. It returns the number of models removed.
func (r *resolver) dedupe() int {
	groups := map[uint64][]*ir.Model{}
	repoint := map[string]string{}
	kept := r.draft.Models[:0:0]

	for _, m := range r.draft.Models {
		if !m.Anonymous {
			kept = append(kept, m)
			continue
		}
		key := Shape(m)
		h := hash(key)
		var canon *ir.Model
		for _, c := range groups[h] {
			if Shape(c) == key {
				canon = c
				break
			}
		}
		if canon == nil {
			groups[h] = append(groups[h], m)
			kept = append(kept, m)
			continue
		}
		repoint[m.Pointer] = canon.Pointer
		r.logger.Debug("merged anonymous model", slog.String("pointer", m.Pointer), slog.String("into", canon.Pointer))
	}
	if len(repoint) == 0 {
		return 0
	}
	r.draft.Models = kept
	ir.WalkDraft(r.draft, func(n *ir.Model) {
		if n.Kind != ir.KindReference {
			return
		}
		if to, ok := repoint[n.Ref]; ok {
			n.Ref = to
		}
	})
	return len(repoint)
}

// Shape returns a canonical encoding of the structure of m. Documentation fields, names
// and source locations are ignored; references compare by target.
func Shape(m *ir.Model) string {
	var b strings.Builder
	writeShape(&b, m)
	return b.String()
}

func writeShape(b *strings.Builder, m *ir.Model) {
	if m == nil {
		b.WriteString("nil;")
		return
	}
	b.WriteString(string(m.Kind))
	b.WriteByte('(')
	switch m.Kind {
	case ir.KindReference:
		b.WriteString(m.Ref)
	case ir.KindGeneric:
		b.WriteString(m.Type)
		b.WriteByte(',')
		b.WriteString(m.Format)
	case ir.KindEnum:
		b.WriteString(m.Type)
		for _, e := range m.Enum {
			fmt.Fprintf(b, ",%T:%v=%s", e.Value, e.Value, e.Name)
		}
	case ir.KindInterface:
		for _, p := range m.Properties {
			b.WriteString(p.Name)
			if p.Required {
				b.WriteByte('!')
			}
			b.WriteByte(':')
			writeShape(b, p.Model)
		}
	case ir.KindArray, ir.KindDictionary:
		writeShape(b, m.Items)
	default:
		for _, mem := range m.Members {
			writeShape(b, mem)
		}
	}
	if m.Nullable {
		b.WriteString("|null")
	}
	b.WriteString(");")
}

func hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

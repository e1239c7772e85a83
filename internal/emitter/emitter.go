// Package emitter turns a finalized Client into the TypeScript source tree: one file per
// model, schema and service, the core support files and an index that re-exports them.
package emitter

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/templates"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// Options controls which categories are emitted and where.
type Options struct {
	Output         string // required; holds index.ts
	OutputCore     string // defaults to <Output>/core
	OutputModels   string // defaults to <Output>/models
	OutputSchemas  string // defaults to <Output>/schemas
	OutputServices string // defaults to <Output>/services

	ExportCore     bool
	ExportModels   bool
	ExportSchemas  bool
	ExportServices bool

	Request string // optional file copied over core/request.ts
	Write   bool   // false plans the file set without touching the disk
	Force   bool   // overwrite a non-empty output directory
	Logger  *slog.Logger
}

// PlannedFile describes a file of the output tree.
type PlannedFile struct {
	RelPath string // slash separated, relative to Output; may start with "../"
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files and their contents keyed by RelPath.
type Result struct {
	Planned []PlannedFile
	Files   map[string][]byte
}

type layout struct {
	root, core, models, schemas, services string
}

func resolveLayout(opts Options) (layout, error) {
	if strings.TrimSpace(opts.Output) == "" {
		return layout{}, generrors.New(generrors.InputError, "output directory is required")
	}
	root, err := filepath.Abs(opts.Output)
	if err != nil {
		return layout{}, generrors.Wrap(generrors.InputError, err, "resolve output directory: %v", err)
	}
	dir := func(p, def string) (string, error) {
		if strings.TrimSpace(p) == "" {
			return filepath.Join(root, def), nil
		}
		return filepath.Abs(p)
	}
	l := layout{root: root}
	for _, d := range []struct {
		dst  *string
		path string
		def  string
	}{
		{&l.core, opts.OutputCore, "core"},
		{&l.models, opts.OutputModels, "models"},
		{&l.schemas, opts.OutputSchemas, "schemas"},
		{&l.services, opts.OutputServices, "services"},
	} {
		p, err := dir(d.path, d.def)
		if err != nil {
			return layout{}, generrors.Wrap(generrors.InputError, err, "resolve %s directory: %v", d.def, err)
		}
		*d.dst = p
	}
	return l, nil
}

// exported lists the category directories written by this run.
func (l layout) exported(opts Options) []string {
	var dirs []string
	if opts.ExportCore {
		dirs = append(dirs, l.core)
	}
	if opts.ExportModels {
		dirs = append(dirs, l.models)
	}
	if opts.ExportSchemas {
		dirs = append(dirs, l.schemas)
	}
	if opts.ExportServices {
		dirs = append(dirs, l.services)
	}
	return dirs
}

// Emit renders the file set of c with reg and, when opts.Write is set, persists it.
// The rendered content does not depend on opts.Write.
func Emit(ctx context.Context, c *ir.Client, reg *templates.Registry, opts Options) (*Result, error) {
	if c == nil || reg == nil {
		return nil, generrors.New(generrors.InputError, "emitter: client and template registry are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "emitter")

	l, err := resolveLayout(opts)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{}
	add := func(path string, content []byte) {
		files[path] = content
	}

	if opts.ExportCore {
		for _, name := range reg.CoreFiles() {
			var content []byte
			if name == "request" && opts.Request != "" {
				content, err = os.ReadFile(opts.Request)
				if err != nil {
					return nil, &generrors.Error{Code: generrors.InputError, Message: "read request override: " + err.Error(), Location: opts.Request, Cause: err}
				}
			} else if content, err = reg.Core(name, c); err != nil {
				return nil, err
			}
			add(filepath.Join(l.core, name+".ts"), content)
		}
	}
	if opts.ExportModels {
		for _, m := range c.Models {
			content, err := reg.Model(m)
			if err != nil {
				return nil, err
			}
			add(filepath.Join(l.models, m.Name+".ts"), content)
		}
	}
	if opts.ExportSchemas {
		for _, s := range c.Schemas {
			content, err := reg.Schema(s)
			if err != nil {
				return nil, err
			}
			add(filepath.Join(l.schemas, "$"+s.Name+".ts"), content)
		}
	}
	if opts.ExportServices {
		paths := templates.ServicePaths{
			Models: importPath(l.services, l.models),
			Core:   importPath(l.services, l.core),
		}
		for _, s := range c.Services {
			content, err := reg.Service(s, paths)
			if err != nil {
				return nil, err
			}
			add(filepath.Join(l.services, s.Name+"Service.ts"), content)
		}
	}

	index, err := reg.Index(templates.IndexData{
		Models:         c.Models,
		Schemas:        c.Schemas,
		Services:       c.Services,
		ExportCore:     opts.ExportCore,
		ExportModels:   opts.ExportModels,
		ExportSchemas:  opts.ExportSchemas,
		ExportServices: opts.ExportServices,
		CorePath:       importPath(l.root, l.core),
		ModelsPath:     importPath(l.root, l.models),
		SchemasPath:    importPath(l.root, l.schemas),
		ServicesPath:   importPath(l.root, l.services),
	})
	if err != nil {
		return nil, err
	}
	add(filepath.Join(l.root, "index.ts"), index)

	// Plan in deterministic order
	abs := make([]string, 0, len(files))
	for p := range files {
		abs = append(abs, p)
	}
	sort.Strings(abs)

	res := &Result{Planned: make([]PlannedFile, 0, len(abs)), Files: make(map[string][]byte, len(abs))}
	for _, p := range abs {
		rel := relPath(l.root, p)
		res.Planned = append(res.Planned, PlannedFile{RelPath: rel, Size: len(files[p]), Mode: 0o644})
		res.Files[rel] = files[p]
	}

	if opts.Write {
		if err := writeFiles(ctx, l.root, abs, files, opts.Force); err != nil {
			return nil, err
		}
		if opts.Force {
			removed, err := removeStale(l.exported(opts), files)
			if err != nil {
				return nil, err
			}
			for _, p := range removed {
				logger.Debug("removed stale file", slog.String("path", relPath(l.root, p)))
			}
		}
	}
	logger.Info("files emitted",
		slog.Int("files", len(res.Planned)),
		slog.String("output", l.root),
		slog.Bool("dry_run", !opts.Write))
	return res, nil
}

// importPath returns the import specifier of dir to as seen from dir from: "./x",
// "../x" or ".".
func importPath(from, to string) string {
	rel := relPath(from, to)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}

func relPath(from, to string) string {
	rel, err := filepath.Rel(from, to)
	if err != nil {
		return filepath.ToSlash(to)
	}
	return filepath.ToSlash(rel)
}

func writeFiles(ctx context.Context, root string, order []string, files map[string][]byte, force bool) error {
	// Pre-flight: if directory exists and not empty and not force, error.
	if st, err := os.Stat(root); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(root)
		if rerr == nil && len(entries) > 0 {
			return &generrors.Error{
				Code:     generrors.InputError,
				Message:  "output directory " + root + " is not empty (use --force to overwrite)",
				Location: root,
			}
		}
	}
	for _, p := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeAtomic(p, files[p]); err != nil {
			return &generrors.Error{
				Code:     generrors.WriteFailure,
				Message:  "write " + relPath(root, p) + ": " + err.Error(),
				Location: p,
				Cause:    err,
			}
		}
	}
	return nil
}

// removeStale deletes the .ts files directly inside dirs that are not part of keep, so a
// model or service dropped since the previous run does not linger. Subdirectories and
// other files are left alone.
func removeStale(dirs []string, keep map[string][]byte) ([]string, error) {
	var removed []string
	seen := map[string]struct{}{}
	for _, dir := range dirs {
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, &generrors.Error{Code: generrors.WriteFailure, Message: "read " + dir + ": " + err.Error(), Location: dir, Cause: err}
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || filepath.Ext(e.Name()) != ".ts" {
				continue
			}
			p := filepath.Join(dir, e.Name())
			if _, ok := keep[p]; ok {
				continue
			}
			if err := os.Remove(p); err != nil {
				return removed, &generrors.Error{Code: generrors.WriteFailure, Message: "remove stale " + p + ": " + err.Error(), Location: p, Cause: err}
			}
			removed = append(removed, p)
		}
	}
	return removed, nil
}

// writeAtomic writes content to a temp file next to p and renames it into place.
func writeAtomic(p string, content []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, p); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

package naming

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// RuntimeNames are exported by the generated core files and cannot name a model.
var RuntimeNames = []string{
	"ApiError",
	"ApiRequestOptions",
	"ApiResult",
	"CancelablePromise",
	"CancelError",
	"OnCancel",
	"OpenAPI",
	"OpenAPIConfig",
}

// Option configures Assign.
type Option func(*sanitizer)

// WithLogger sets the logger for renames.
func WithLogger(l *slog.Logger) Option {
	return func(s *sanitizer) { s.logger = l }
}

type sanitizer struct {
	logger *slog.Logger
}

// Assign returns a new draft in which every model, service, operation, parameter,
// property and enum member carries an export name, and every reference names its target
// by export name instead of by pointer.
func Assign(d *ir.Draft, opts ...Option) (*ir.Draft, error) {
	s := &sanitizer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger := s.logger.With("component", "sanitizer")
	out := d.Clone()

	models := NewNamespace(RuntimeNames...)
	byPointer := make(map[string]string, len(out.Models))
	for _, m := range out.Models {
		base := Escape(Pascal(m.Alias))
		if base == "" {
			base = "Model"
		}
		m.Name = models.Claim(base)
		if m.Name != base {
			logger.Debug("model renamed", slog.String("alias", m.Alias), slog.String("name", m.Name))
		}
		byPointer[m.Pointer] = m.Name
	}

	var err error
	ir.WalkDraft(out, func(n *ir.Model) {
		switch n.Kind {
		case ir.KindReference:
			name, ok := byPointer[n.Ref]
			if !ok {
				if err == nil {
					err = generrors.Unresolved(n.Ref, n.Pointer)
				}
				return
			}
			n.Ref = name
		case ir.KindInterface:
			for i := range n.Properties {
				n.Properties[i].ExportName = PropertyKey(n.Properties[i].Name)
			}
		case ir.KindEnum:
			nameEnum(n)
		}
	})
	if err != nil {
		return nil, err
	}

	services := NewNamespace()
	for _, svc := range out.Services {
		base := Escape(Pascal(svc.Alias))
		if base == "" {
			base = "Default"
		}
		name := base
		for i := 1; services.Taken(name) || models.Taken(name+"Service"); i++ {
			name = base + strconv.Itoa(i)
		}
		svc.Name = services.Claim(name)
		nameOperations(svc)
	}

	for _, sch := range out.Schemas {
		sch.Name = byPointer[sch.Pointer]
		sch.Raw = rewriteRefs(sch.Raw, byPointer)
	}
	return out, nil
}

func nameOperations(svc *ir.Service) {
	ops := NewNamespace()
	for i := range svc.Operations {
		op := &svc.Operations[i]
		base := Escape(OperationName(op.ID, string(op.Method), op.Path))
		if base == "" {
			base = "operation"
		}
		op.Name = ops.Claim(base)

		params := NewNamespace()
		for j := range op.Parameters {
			p := &op.Parameters[j]
			pb := Escape(Camel(p.Name))
			if pb == "" {
				pb = "param"
			}
			p.ExportName = params.Claim(pb)
		}
	}
}

func nameEnum(m *ir.Model) {
	ns := NewNamespace()
	for i := range m.Enum {
		ev := &m.Enum[i]
		base := ev.Name
		switch {
		case base == "":
			base = EnumKey(ev.Value)
		case !IsIdentifier(base):
			base = EnumKey(base)
		}
		ev.Name = ns.Claim(base)
	}
}

// rewriteRefs replaces "$ref" pointers inside a raw schema with export names.
func rewriteRefs(v any, byPointer map[string]string) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			if k == "$ref" {
				if s, ok := e.(string); ok {
					if name, ok := byPointer[spec.Canonical(s)]; ok {
						t[k] = name
					}
				}
				continue
			}
			t[k] = rewriteRefs(e, byPointer)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = rewriteRefs(e, byPointer)
		}
		return t
	default:
		return v
	}
}

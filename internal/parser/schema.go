package parser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// prepare returns a copy of raw that the typed decoders accept: extension keys under
// paths are dropped, and OpenAPI 3.1 type arrays and numeric exclusive bounds are folded
// into their 3.0 equivalents.
func prepare(raw spec.RawSpec) spec.RawSpec {
	doc := spec.FromDocument(raw)
	if paths, ok := doc["paths"].(map[string]any); ok {
		for k := range paths {
			if strings.HasPrefix(k, "x-") {
				delete(paths, k)
			}
		}
	}
	fold(doc)
	return doc
}

func fold(v any) {
	switch t := v.(type) {
	case spec.RawSpec:
		fold(map[string]any(t))
	case map[string]any:
		if types, ok := t["type"].([]any); ok {
			var picked string
			for _, e := range types {
				s, _ := e.(string)
				if s == "null" {
					t["nullable"] = true
					continue
				}
				if picked == "" {
					picked = s
				}
			}
			if picked == "" {
				delete(t, "type")
			} else {
				t["type"] = picked
			}
		}
		for _, k := range []string{"exclusiveMinimum", "exclusiveMaximum"} {
			switch t[k].(type) {
			case float64, int:
				delete(t, k)
			}
		}
		for _, e := range t {
			fold(e)
		}
	case []any:
		for _, e := range t {
			fold(e)
		}
	}
}

// schema converts a schema node at pointer into a draft model. References are kept as
// Reference nodes; nested inline schemas stay inline.
func (b *builder) schema(ref *openapi3.SchemaRef, pointer string) *ir.Model {
	if ref == nil {
		return &ir.Model{Kind: ir.KindGeneric, Type: "any", Pointer: pointer}
	}
	if ref.Ref != "" {
		return &ir.Model{Kind: ir.KindReference, Ref: spec.Canonical(ref.Ref), Pointer: pointer}
	}
	s := ref.Value
	if s == nil {
		return &ir.Model{Kind: ir.KindGeneric, Type: "any", Pointer: pointer}
	}
	ext := b.object(pointer)

	m := &ir.Model{
		Pointer:     pointer,
		Type:        s.Type,
		Format:      s.Format,
		Description: strings.TrimSpace(s.Description),
		Deprecated:  s.Deprecated,
		Nullable:    s.Nullable || extBool(ext, "x-nullable"),
		Default:     ir.CloneValue(s.Default),
	}

	switch {
	case len(s.Enum) > 0:
		m.Kind = ir.KindEnum
		m.Enum = enumValues(s.Enum, ext)
		if m.Type == "" {
			m.Type = inferType(s.Enum[0])
		}
	case len(s.AllOf) > 0:
		m.Kind = ir.KindAllOf
		m.Members = b.members(s.AllOf, pointer+"/allOf")
		if len(s.Properties) > 0 {
			obj := &ir.Model{Kind: ir.KindInterface, Pointer: pointer}
			obj.Properties = b.properties(s, pointer)
			m.Members = append(m.Members, obj)
		}
	case len(s.OneOf) > 0:
		m.Kind = ir.KindOneOf
		m.Members = b.members(s.OneOf, pointer+"/oneOf")
	case len(s.AnyOf) > 0:
		m.Kind = ir.KindAnyOf
		m.Members = b.members(s.AnyOf, pointer+"/anyOf")
	case s.Type == "array" || s.Items != nil:
		m.Kind = ir.KindArray
		m.Type = "array"
		m.Items = b.schema(s.Items, pointer+"/items")
	case len(s.Properties) > 0:
		m.Kind = ir.KindInterface
		m.Type = "object"
		m.Properties = b.properties(s, pointer)
	case s.AdditionalProperties.Schema != nil:
		m.Kind = ir.KindDictionary
		m.Type = "object"
		m.Items = b.schema(s.AdditionalProperties.Schema, pointer+"/additionalProperties")
	case s.Type == "object" || (s.AdditionalProperties.Has != nil && *s.AdditionalProperties.Has):
		m.Kind = ir.KindDictionary
		m.Type = "object"
		m.Items = &ir.Model{Kind: ir.KindGeneric, Type: "any", Pointer: pointer + "/additionalProperties"}
	default:
		m.Kind = ir.KindGeneric
		if m.Type == "" {
			m.Type = "any"
		}
	}
	return m
}

func (b *builder) members(refs openapi3.SchemaRefs, pointer string) []*ir.Model {
	out := make([]*ir.Model, 0, len(refs))
	for i, r := range refs {
		out = append(out, b.schema(r, pointer+"/"+strconv.Itoa(i)))
	}
	return out
}

func (b *builder) properties(s *openapi3.Schema, pointer string) []ir.Property {
	required := make(map[string]struct{}, len(s.Required))
	for _, r := range s.Required {
		required[r] = struct{}{}
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]ir.Property, 0, len(names))
	for _, name := range names {
		_, req := required[name]
		out = append(out, ir.Property{
			Name:     name,
			Required: req,
			Model:    b.schema(s.Properties[name], pointer+"/properties/"+spec.EscapeToken(name)),
		})
	}
	return out
}

func enumValues(values []any, ext map[string]any) []ir.EnumValue {
	names, _ := ext["x-enum-varnames"].([]any)
	descs, _ := ext["x-enum-descriptions"].([]any)
	out := make([]ir.EnumValue, 0, len(values))
	for i, v := range values {
		ev := ir.EnumValue{Value: v}
		if i < len(names) {
			ev.Name, _ = names[i].(string)
		}
		if i < len(descs) {
			ev.Description, _ = descs[i].(string)
		}
		out = append(out, ev)
	}
	return out
}

func inferType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	default:
		return "any"
	}
}

func extBool(ext map[string]any, key string) bool {
	v, _ := ext[key].(bool)
	return v
}

func extString(ext map[string]any, key string) string {
	v, _ := ext[key].(string)
	return strings.TrimSpace(v)
}

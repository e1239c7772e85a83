package templates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"text/template"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

// funcs holds the template helpers that depend on Options.
type funcs struct {
	opts Options
}

func (f funcs) funcMap() template.FuncMap {
	return template.FuncMap{
		"typeOf":       f.typeOf,
		"isEnum":       f.isEnum,
		"signature":    f.signature,
		"resultOf":     f.resultOf,
		"operationDoc": f.operationDoc,
		"doc":          doc,
		"literal":      literal,
		"jsString":     jsString,
		"backtick":     backtick,
		"json":         toJSON,
		"method":       func(m ir.HttpMethod) string { return strings.ToUpper(string(m)) },
		"params":       params,
		"body":         body,
		"isForm":       isForm,
		"errors":       errorResults,
	}
}

// typeOf renders the TypeScript type expression of a model (value or pointer).
func (f funcs) typeOf(v any) string {
	switch m := v.(type) {
	case ir.Model:
		return f.expr(&m, "")
	case *ir.Model:
		return f.expr(m, "")
	}
	return "any"
}

// isEnum reports whether a top-level model renders as a TypeScript enum. Enums hold only
// string and number members; anything else falls back to a literal union.
func (f funcs) isEnum(m ir.Model) bool {
	if f.opts.UseUnionTypes || m.Kind != ir.KindEnum || len(m.Enum) == 0 {
		return false
	}
	for _, e := range m.Enum {
		switch e.Value.(type) {
		case string, float64, int, int64:
		default:
			return false
		}
	}
	return true
}

func (f funcs) expr(m *ir.Model, indent string) string {
	if m == nil {
		return "any"
	}
	var s string
	switch m.Kind {
	case ir.KindReference:
		s = m.Ref
	case ir.KindGeneric:
		s = primitive(m)
	case ir.KindEnum:
		vals := make([]string, 0, len(m.Enum))
		for _, e := range m.Enum {
			vals = append(vals, literal(e.Value))
		}
		s = strings.Join(vals, " | ")
		if len(vals) > 1 {
			s = "(" + s + ")"
		}
	case ir.KindArray:
		s = "Array<" + f.expr(m.Items, indent) + ">"
	case ir.KindDictionary:
		s = "Record<string, " + f.expr(m.Items, indent) + ">"
	case ir.KindAllOf:
		s = f.join(m.Members, " & ", indent)
	case ir.KindOneOf, ir.KindAnyOf:
		s = f.join(m.Members, " | ", indent)
	case ir.KindInterface:
		s = f.object(m, indent)
	default:
		s = "any"
	}
	if s == "" {
		s = "any"
	}
	if m.Nullable && s != "any" && s != "null" {
		s += " | null"
	}
	return s
}

func (f funcs) join(members []*ir.Model, sep, indent string) string {
	parts := make([]string, 0, len(members))
	for _, mem := range members {
		parts = append(parts, f.expr(mem, indent))
	}
	switch len(parts) {
	case 0:
		return "any"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (f funcs) object(m *ir.Model, indent string) string {
	if len(m.Properties) == 0 {
		return "Record<string, any>"
	}
	inner := indent + "    "
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range m.Properties {
		if p.Model != nil {
			b.WriteString(doc(inner, p.Model.Description, p.Model.Deprecated))
		}
		key := p.ExportName
		if key == "" {
			key = p.Name
		}
		b.WriteString(inner)
		b.WriteString(key)
		if !p.Required {
			b.WriteString("?")
		}
		b.WriteString(": ")
		b.WriteString(f.expr(p.Model, inner))
		b.WriteString(";\n")
	}
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

func primitive(m *ir.Model) string {
	switch m.Type {
	case "integer", "number":
		return "number"
	case "string":
		if m.Format == "binary" {
			return "Blob"
		}
		return "string"
	case "boolean":
		return "boolean"
	case "file", "binary":
		return "Blob"
	case "null":
		return "null"
	case "object":
		return "Record<string, any>"
	}
	return "any"
}

// signature renders the parameter list of a service method.
func (f funcs) signature(op ir.Operation) string {
	if len(op.Parameters) == 0 {
		return ""
	}
	const indent = "        "
	if !f.opts.UseOptions {
		parts := make([]string, 0, len(op.Parameters))
		for _, p := range op.Parameters {
			parts = append(parts, f.param(p, indent))
		}
		return "\n" + indent + strings.Join(parts, ",\n"+indent) + ",\n    "
	}

	var names, types strings.Builder
	anyRequired := false
	for _, p := range op.Parameters {
		names.WriteString(indent + p.ExportName)
		if p.Default != nil {
			names.WriteString(" = " + literal(p.Default))
		}
		names.WriteString(",\n")

		types.WriteString(doc(indent, p.Description, false))
		types.WriteString(indent + p.ExportName)
		if !p.Required {
			types.WriteString("?")
		} else {
			anyRequired = true
		}
		types.WriteString(": " + f.expr(p.Model, indent) + ",\n")
	}
	out := "{\n" + names.String() + "    }: {\n" + types.String() + "    }"
	if !anyRequired {
		out += " = {}"
	}
	return out
}

func (f funcs) param(p ir.Parameter, indent string) string {
	typ := f.expr(p.Model, indent)
	switch {
	case p.Default != nil:
		return p.ExportName + ": " + typ + " = " + literal(p.Default)
	case !p.Required:
		return p.ExportName + "?: " + typ
	}
	return p.ExportName + ": " + typ
}

// resultOf renders the resolved type of the success result.
func (f funcs) resultOf(op ir.Operation) string {
	s := op.Success()
	if s == nil || s.Model == nil {
		return "void"
	}
	return f.expr(s.Model, "    ")
}

func (f funcs) operationDoc(op ir.Operation) string {
	var lines []string
	if op.Summary != "" {
		lines = append(lines, op.Summary)
	}
	if op.Description != "" {
		lines = append(lines, op.Description)
	}
	if op.Deprecated {
		lines = append(lines, "@deprecated")
	}
	for _, p := range op.Parameters {
		lines = append(lines, strings.TrimSpace("@param "+p.ExportName+" "+firstLine(p.Description)))
	}
	if s := op.Success(); s != nil {
		lines = append(lines, strings.TrimSpace("@returns "+f.resultOf(op)+" "+firstLine(s.Description)))
	}
	lines = append(lines, "@throws ApiError")
	return block("    ", lines)
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}

// doc renders a JSDoc block, or nothing when there is nothing to say.
func doc(indent, text string, deprecated bool) string {
	var lines []string
	if text = strings.TrimSpace(text); text != "" {
		lines = strings.Split(text, "\n")
	}
	if deprecated {
		lines = append(lines, "@deprecated")
	}
	if len(lines) == 0 {
		return ""
	}
	return block(indent, lines)
}

func block(indent string, lines []string) string {
	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, l := range lines {
		l = strings.TrimRight(strings.ReplaceAll(l, "*/", "*\\/"), " \t\r")
		if l == "" {
			b.WriteString(indent + " *\n")
			continue
		}
		b.WriteString(indent + " * " + l + "\n")
	}
	b.WriteString(indent + " */\n")
	return b.String()
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

// jsString renders s as a single-quoted string literal.
func jsString(s string) string {
	return "'" + jsEscaper.Replace(s) + "'"
}

var backtickEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", "\\${")

// backtick renders s as a template literal.
func backtick(s string) string {
	return "`" + backtickEscaper.Replace(s) + "`"
}

// literal renders a decoded JSON value as a TypeScript literal.
func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return jsString(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "undefined"
	}
	return string(b)
}

// toJSON renders v as indented JSON with sorted keys.
func toJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func params(op ir.Operation, in string) []ir.Parameter {
	var out []ir.Parameter
	for _, p := range op.Parameters {
		if string(p.In) == in {
			out = append(out, p)
		}
	}
	return out
}

func body(op ir.Operation) *ir.Parameter {
	for i := range op.Parameters {
		if op.Parameters[i].In == ir.InBody {
			return &op.Parameters[i]
		}
	}
	return nil
}

func isForm(mediaType string) bool {
	return mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded"
}

// errorResults returns the error results with an explicit status code. Descriptions fall
// back to the status text.
func errorResults(op ir.Operation) []ir.Result {
	var out []ir.Result
	for _, r := range op.Errors() {
		if r.Code == 0 {
			continue
		}
		if strings.TrimSpace(r.Description) == "" {
			r.Description = http.StatusText(r.Code)
		}
		out = append(out, r)
	}
	return out
}

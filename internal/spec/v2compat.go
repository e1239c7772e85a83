package spec

import (
	"strings"
)

// PrepareV2 rewrites non-compliant Swagger v2 operations into a shape the v2 parser
// accepts. The input is never modified; when changes are needed a deep copy is returned
// along with changed=true.
//
//   - Several body parameters on one operation merge into a single body parameter whose
//     schema is an object with one property per original parameter.
//   - An operation that mixes body and formData parameters has its body parameters
//     converted to formData equivalents and gains multipart/form-data in consumes.
func PrepareV2(raw RawSpec) (RawSpec, bool) {
	if !needsV2Rewrite(raw) {
		return raw, false
	}
	doc := FromDocument(raw)
	paths, _ := doc["paths"].(map[string]any)
	changed := false
	for _, pim := range paths {
		pi, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		for method, opm := range pi {
			if !isOperationKey(method) {
				continue
			}
			op, ok := opm.(map[string]any)
			if !ok {
				continue
			}
			if rewriteV2Operation(op) {
				changed = true
			}
		}
	}
	return doc, changed
}

func needsV2Rewrite(raw RawSpec) bool {
	paths, _ := raw["paths"].(map[string]any)
	for _, pim := range paths {
		pi, _ := pim.(map[string]any)
		for method, opm := range pi {
			if !isOperationKey(method) {
				continue
			}
			op, _ := opm.(map[string]any)
			bodies, form := countBodyParams(op)
			if bodies > 1 || (bodies > 0 && form) {
				return true
			}
		}
	}
	return false
}

func isOperationKey(k string) bool {
	switch strings.ToLower(k) {
	case "get", "post", "put", "delete", "patch", "options", "head":
		return true
	}
	return false
}

func countBodyParams(op map[string]any) (bodies int, hasFormData bool) {
	params, _ := op["parameters"].([]any)
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch {
		case strings.EqualFold(asString(pm["in"]), "body"):
			bodies++
		case strings.EqualFold(asString(pm["in"]), "formData"):
			hasFormData = true
		}
	}
	return bodies, hasFormData
}

func rewriteV2Operation(op map[string]any) bool {
	bodyCount, hasFormData := countBodyParams(op)
	if bodyCount == 0 {
		return false
	}
	params, _ := op["parameters"].([]any)

	if hasFormData {
		newParams := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil {
				continue
			}
			if strings.EqualFold(asString(pm["in"]), "body") {
				newParams = append(newParams, formDataFromBodyParam(pm))
				continue
			}
			newParams = append(newParams, pm)
		}
		op["parameters"] = newParams
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	}

	if bodyCount < 2 {
		return false
	}
	props := map[string]any{}
	required := make([]any, 0)
	newParams := make([]any, 0, len(params))
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		if strings.EqualFold(asString(pm["in"]), "body") {
			name := asString(pm["name"])
			if name == "" {
				name = "field"
			}
			schema := extractSchemaFromParam(pm)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if rb, _ := pm["required"].(bool); rb {
				required = append(required, name)
			}
			continue
		}
		newParams = append(newParams, p)
	}
	bodySchema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		bodySchema["required"] = required
	}
	merged := map[string]any{
		"in":     "body",
		"name":   "body",
		"schema": bodySchema,
	}
	if len(required) > 0 {
		merged["required"] = true
	}
	op["parameters"] = append([]any{merged}, newParams...)
	return true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

func extractSchemaFromParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t, _ := pm["type"].(string)
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f, ok := pm["format"].(string); ok && f != "" {
		m["format"] = f
	}
	return m
}

func formDataFromBodyParam(pm map[string]any) map[string]any {
	name := asString(pm["name"])
	if name == "" {
		name = "field"
	}
	out := map[string]any{
		"in":   "formData",
		"name": name,
	}
	if desc, ok := pm["description"].(string); ok && desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}
	var typ, format string
	var items any
	if sch, ok := pm["schema"].(map[string]any); ok {
		typ, _ = sch["type"].(string)
		format, _ = sch["format"].(string)
		if it, ok := sch["items"].(map[string]any); ok {
			items = it
		}
		// A referenced object has no formData representation.
		if typ == "" && sch["$ref"] != nil {
			typ = "string"
		}
	}
	if typ == "" {
		typ, _ = pm["type"].(string)
		format, _ = pm["format"].(string)
		if it, ok := pm["items"].(map[string]any); ok {
			items = it
		}
	}
	if typ == "" {
		typ = "string"
	}
	out["type"] = typ
	if items != nil {
		out["items"] = items
	}
	if format != "" {
		out["format"] = format
	}
	return out
}

package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

func parseV3(doc spec.RawSpec, b *builder) (*ir.Draft, error) {
	var t openapi3.T
	if err := decode(map[string]any(doc), &t); err != nil {
		return nil, &generrors.Error{Code: generrors.ParseError, Message: fmt.Sprintf("decode openapi 3 document: %v", err), Cause: err}
	}

	d := &ir.Draft{Server: serverV3(t.Servers)}
	if t.Components != nil {
		for _, name := range sortedKeys(t.Components.Schemas) {
			ptr := spec.Join("components", "schemas", name)
			m := b.schema(t.Components.Schemas[name], ptr)
			m.Alias = name
			d.Models = append(d.Models, m)
			d.Schemas = append(d.Schemas, &ir.Schema{Pointer: ptr, Raw: rawAt(b, ptr)})
		}
	}

	for _, path := range sortedKeys(t.Paths) {
		item := t.Paths[path]
		if item == nil {
			continue
		}
		itemPtr := spec.Join("paths", path)
		if item.Ref != "" {
			resolved := &openapi3.PathItem{}
			p, err := b.deref(item.Ref, itemPtr, resolved)
			if err != nil {
				return nil, err
			}
			item, itemPtr = resolved, p
		}
		shared, err := b.parametersV3(item.Parameters, itemPtr+"/parameters")
		if err != nil {
			return nil, err
		}
		ops := []struct {
			m ir.HttpMethod
			o *openapi3.Operation
		}{
			{ir.GET, item.Get},
			{ir.PUT, item.Put},
			{ir.POST, item.Post},
			{ir.DELETE, item.Delete},
			{ir.OPTIONS, item.Options},
			{ir.HEAD, item.Head},
			{ir.PATCH, item.Patch},
			{ir.TRACE, item.Trace},
		}
		for _, pair := range ops {
			if pair.o == nil || !b.allow(pair.o.Tags) {
				continue
			}
			op, err := b.operationV3(path, pair.m, pair.o, shared, itemPtr+"/"+string(pair.m))
			if err != nil {
				return nil, err
			}
			b.addOperation(op)
		}
	}
	return b.finish(d), nil
}

func (b *builder) operationV3(path string, method ir.HttpMethod, o *openapi3.Operation, shared []ir.Parameter, ptr string) (ir.Operation, error) {
	op := ir.Operation{
		ID:          strings.TrimSpace(o.OperationID),
		Method:      method,
		Path:        path,
		Summary:     strings.TrimSpace(o.Summary),
		Description: strings.TrimSpace(o.Description),
		Deprecated:  o.Deprecated,
	}
	if len(o.Tags) > 0 {
		op.Tag = o.Tags[0]
	}
	alias := operationAlias(op.ID, method, path)

	own, err := b.parametersV3(o.Parameters, ptr+"/parameters")
	if err != nil {
		return op, err
	}
	params := mergeParameters(shared, own)
	for i := range params {
		params[i].Model = b.hoist(params[i].Model, alias+" "+params[i].Name)
	}

	if o.RequestBody != nil {
		body, err := b.requestBodyV3(o.RequestBody, ptr+"/requestBody")
		if err != nil {
			return op, err
		}
		if body != nil {
			body.Model = b.hoist(body.Model, alias+" Request")
			params = mergeParameters(params, []ir.Parameter{*body})
		}
	}
	op.Parameters = params

	var responses []response
	for _, status := range sortedKeys(o.Responses) {
		r, err := b.responseV3(status, o.Responses[status], ptr+"/responses/"+spec.EscapeToken(status))
		if err != nil {
			return op, err
		}
		responses = append(responses, r)
	}
	op.Results = buildResults(responses)
	for i := range op.Results {
		suffix := " Response"
		if op.Results[i].Class == ir.Failure {
			suffix = " Error " + op.Results[i].Status
		}
		op.Results[i].Model = b.hoist(op.Results[i].Model, alias+suffix)
	}
	return op, nil
}

func (b *builder) parametersV3(refs openapi3.Parameters, ptr string) ([]ir.Parameter, error) {
	var out []ir.Parameter
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		pptr := fmt.Sprintf("%s/%d", ptr, i)
		p := ref.Value
		if ref.Ref != "" {
			p = &openapi3.Parameter{}
			target, err := b.deref(ref.Ref, pptr, p)
			if err != nil {
				return nil, err
			}
			pptr = target
		}
		if p == nil {
			continue
		}
		in := ir.Location(strings.ToLower(p.In))
		if !in.Valid() || in == ir.InBody {
			b.logger.Debug("skipping parameter", slog.String("name", p.Name), slog.String("in", p.In))
			continue
		}
		param := ir.Parameter{
			Name:        p.Name,
			In:          in,
			Required:    p.Required,
			Description: strings.TrimSpace(p.Description),
		}
		switch {
		case p.Schema != nil:
			param.Model = b.schema(p.Schema, pptr+"/schema")
		case len(p.Content) > 0:
			mt := preferredMedia(contentTypes(p.Content))
			param.Model = b.schema(p.Content[mt].Schema, pptr+"/content/"+spec.EscapeToken(mt)+"/schema")
		default:
			param.Model = &ir.Model{Kind: ir.KindGeneric, Type: "string", Pointer: pptr}
		}
		param.Default = param.Model.Default
		param.Model.Deprecated = param.Model.Deprecated || p.Deprecated
		out = append(out, param)
	}
	return out, nil
}

func (b *builder) requestBodyV3(ref *openapi3.RequestBodyRef, ptr string) (*ir.Parameter, error) {
	rb := ref.Value
	if ref.Ref != "" {
		rb = &openapi3.RequestBody{}
		target, err := b.deref(ref.Ref, ptr, rb)
		if err != nil {
			return nil, err
		}
		ptr = target
	}
	if rb == nil {
		return nil, nil
	}
	name := extString(b.object(ptr), "x-body-name")
	if name == "" {
		name = "requestBody"
	}
	param := &ir.Parameter{
		Name:        name,
		In:          ir.InBody,
		Required:    rb.Required,
		Description: strings.TrimSpace(rb.Description),
	}
	if mt := preferredMedia(contentTypes(rb.Content)); mt != "" {
		param.MediaType = mt
		param.Model = b.schema(rb.Content[mt].Schema, ptr+"/content/"+spec.EscapeToken(mt)+"/schema")
	} else {
		param.Model = &ir.Model{Kind: ir.KindGeneric, Type: "any", Pointer: ptr}
	}
	return param, nil
}

func (b *builder) responseV3(status string, ref *openapi3.ResponseRef, ptr string) (response, error) {
	r := response{status: status}
	if ref == nil {
		return r, nil
	}
	resp := ref.Value
	if ref.Ref != "" {
		resp = &openapi3.Response{}
		target, err := b.deref(ref.Ref, ptr, resp)
		if err != nil {
			return r, err
		}
		ptr = target
	}
	if resp == nil {
		return r, nil
	}
	if resp.Description != nil {
		r.description = strings.TrimSpace(*resp.Description)
	}
	if mt := preferredMedia(contentTypes(resp.Content)); mt != "" {
		r.mediaType = mt
		if s := resp.Content[mt].Schema; s != nil {
			r.model = b.schema(s, ptr+"/content/"+spec.EscapeToken(mt)+"/schema")
		}
	}
	return r, nil
}

func contentTypes(c openapi3.Content) []string {
	out := make([]string, 0, len(c))
	for k, v := range c {
		if v != nil {
			out = append(out, k)
		}
	}
	return out
}

// serverV3 returns the first server URL with variables replaced by their defaults.
func serverV3(servers openapi3.Servers) string {
	if len(servers) == 0 || servers[0] == nil {
		return ""
	}
	url := servers[0].URL
	for name, v := range servers[0].Variables {
		if v == nil {
			continue
		}
		url = strings.ReplaceAll(url, "{"+name+"}", v.Default)
	}
	return strings.TrimSuffix(url, "/")
}

func rawAt(b *builder, ptr string) any {
	v, _ := spec.Lookup(b.doc, ptr)
	return ir.CloneValue(v)
}

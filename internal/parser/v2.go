package parser

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

const (
	mediaJSON      = "application/json"
	mediaMultipart = "multipart/form-data"
	mediaForm      = "application/x-www-form-urlencoded"
)

func parseV2(doc spec.RawSpec, b *builder) (*ir.Draft, error) {
	if prepared, changed := spec.PrepareV2(doc); changed {
		b.logger.Debug("rewrote non-compliant v2 operations")
		b.doc = prepared
		doc = prepared
	}
	var t openapi2.T
	if err := decode(map[string]any(doc), &t); err != nil {
		return nil, &generrors.Error{Code: generrors.ParseError, Message: fmt.Sprintf("decode swagger 2 document: %v", err), Cause: err}
	}

	d := &ir.Draft{Server: serverV2(&t)}
	for _, name := range sortedKeys(t.Definitions) {
		ptr := spec.Join("definitions", name)
		m := b.schema(t.Definitions[name], ptr)
		m.Alias = name
		d.Models = append(d.Models, m)
		d.Schemas = append(d.Schemas, &ir.Schema{Pointer: ptr, Raw: rawAt(b, ptr)})
	}

	for _, path := range sortedKeys(t.Paths) {
		item := t.Paths[path]
		if item == nil {
			continue
		}
		itemPtr := spec.Join("paths", path)
		if item.Ref != "" {
			resolved := &openapi2.PathItem{}
			p, err := b.deref(item.Ref, itemPtr, resolved)
			if err != nil {
				return nil, err
			}
			item, itemPtr = resolved, p
		}
		ops := []struct {
			m ir.HttpMethod
			o *openapi2.Operation
		}{
			{ir.GET, item.Get},
			{ir.PUT, item.Put},
			{ir.POST, item.Post},
			{ir.DELETE, item.Delete},
			{ir.OPTIONS, item.Options},
			{ir.HEAD, item.Head},
			{ir.PATCH, item.Patch},
		}
		for _, pair := range ops {
			if pair.o == nil || !b.allow(pair.o.Tags) {
				continue
			}
			op, err := b.operationV2(&t, path, pair.m, pair.o, item.Parameters, itemPtr)
			if err != nil {
				return nil, err
			}
			b.addOperation(op)
		}
	}
	return b.finish(d), nil
}

func (b *builder) operationV2(t *openapi2.T, path string, method ir.HttpMethod, o *openapi2.Operation, shared openapi2.Parameters, itemPtr string) (ir.Operation, error) {
	ptr := itemPtr + "/" + string(method)
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

	consumes := o.Consumes
	if len(consumes) == 0 {
		consumes = t.Consumes
	}

	pathParams, pathForm, err := b.parametersV2(shared, itemPtr+"/parameters", consumes)
	if err != nil {
		return op, err
	}
	own, ownForm, err := b.parametersV2(o.Parameters, ptr+"/parameters", consumes)
	if err != nil {
		return op, err
	}
	params := mergeParameters(pathParams, own)
	if form := mergeParameters(pathForm, ownForm); len(form) > 0 {
		params = mergeParameters(params, []ir.Parameter{formBody(form, consumes, ptr)})
	}
	for i := range params {
		suffix := " " + params[i].Name
		if params[i].In == ir.InBody {
			suffix = " Request"
		}
		params[i].Model = b.hoist(params[i].Model, alias+suffix)
	}
	op.Parameters = params

	var responses []response
	for _, status := range sortedKeys(o.Responses) {
		r, err := b.responseV2(status, o.Responses[status], ptr+"/responses/"+spec.EscapeToken(status))
		if err != nil {
			return op, err
		}
		responses = append(responses, r)
	}
	if len(o.Produces) > 0 || len(t.Produces) > 0 {
		produces := o.Produces
		if len(produces) == 0 {
			produces = t.Produces
		}
		mt := preferredMedia(produces)
		for i := range responses {
			if responses[i].model != nil {
				responses[i].mediaType = mt
			}
		}
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

// parametersV2 converts v2 parameters. formData parameters are returned separately so the
// caller can fold them into one body.
func (b *builder) parametersV2(params openapi2.Parameters, ptr string, consumes []string) (out, form []ir.Parameter, err error) {
	for i, p := range params {
		if p == nil {
			continue
		}
		pptr := fmt.Sprintf("%s/%d", ptr, i)
		if p.Ref != "" {
			resolved := &openapi2.Parameter{}
			target, err := b.deref(p.Ref, pptr, resolved)
			if err != nil {
				return nil, nil, err
			}
			p, pptr = resolved, target
		}
		param := ir.Parameter{
			Name:        p.Name,
			Required:    p.Required,
			Description: strings.TrimSpace(p.Description),
		}
		switch strings.ToLower(p.In) {
		case "body":
			param.In = ir.InBody
			param.MediaType = preferredMedia(consumes)
			if param.MediaType == "" {
				param.MediaType = mediaJSON
			}
			param.Model = b.schema(p.Schema, pptr+"/schema")
			if name := extString(b.object(pptr), "x-body-name"); name != "" {
				param.Name = name
			}
		case "formdata":
			param.In = ir.InBody
			param.Model = b.primitiveV2(p, pptr)
			form = append(form, param)
			continue
		case "path", "query", "header":
			param.In = ir.Location(strings.ToLower(p.In))
			param.Model = b.primitiveV2(p, pptr)
		default:
			b.logger.Debug("skipping parameter", slog.String("name", p.Name), slog.String("in", p.In))
			continue
		}
		param.Default = param.Model.Default
		out = append(out, param)
	}
	return out, form, nil
}

// primitiveV2 builds the model of a non-body v2 parameter from its inline type fields.
func (b *builder) primitiveV2(p *openapi2.Parameter, ptr string) *ir.Model {
	if p.Schema != nil {
		return b.schema(p.Schema, ptr+"/schema")
	}
	s := &openapi3.Schema{
		Type:    p.Type,
		Format:  p.Format,
		Items:   p.Items,
		Enum:    p.Enum,
		Default: p.Default,
	}
	if s.Type == "" && s.Items == nil && len(s.Enum) == 0 {
		s.Type = "string"
	}
	m := b.schema(&openapi3.SchemaRef{Value: s}, ptr)
	m.Description = ""
	return m
}

// formBody folds formData parameters into one anonymous object body.
func formBody(form []ir.Parameter, consumes []string, ptr string) ir.Parameter {
	obj := &ir.Model{Kind: ir.KindInterface, Type: "object", Pointer: ptr + "/parameters/formData"}
	required := false
	multipart := false
	for _, f := range form {
		f.Model.Description = f.Description
		obj.Properties = append(obj.Properties, ir.Property{Name: f.Name, Required: f.Required, Model: f.Model})
		if f.Required {
			required = true
		}
		if f.Model.Kind == ir.KindGeneric && f.Model.Type == "file" {
			multipart = true
		}
	}
	sort.SliceStable(obj.Properties, func(i, j int) bool { return obj.Properties[i].Name < obj.Properties[j].Name })
	for _, c := range consumes {
		if base(c) == mediaMultipart {
			multipart = true
		}
	}
	mt := mediaForm
	if multipart {
		mt = mediaMultipart
	}
	return ir.Parameter{
		Name:      "formData",
		In:        ir.InBody,
		Required:  required,
		MediaType: mt,
		Model:     obj,
	}
}

func (b *builder) responseV2(status string, resp *openapi2.Response, ptr string) (response, error) {
	r := response{status: status}
	if resp == nil {
		return r, nil
	}
	if resp.Ref != "" {
		resolved := &openapi2.Response{}
		target, err := b.deref(resp.Ref, ptr, resolved)
		if err != nil {
			return r, err
		}
		resp, ptr = resolved, target
	}
	r.description = strings.TrimSpace(resp.Description)
	if resp.Schema != nil {
		r.model = b.schema(resp.Schema, ptr+"/schema")
		r.mediaType = mediaJSON
	}
	return r, nil
}

// serverV2 builds <scheme>://<host><basePath>, or basePath alone when no host is declared.
func serverV2(t *openapi2.T) string {
	basePath := strings.TrimSpace(t.BasePath)
	host := strings.TrimSpace(t.Host)
	if host == "" {
		return strings.TrimSuffix(basePath, "/")
	}
	scheme := "http"
	if len(t.Schemes) > 0 && t.Schemes[0] != "" {
		scheme = t.Schemes[0]
	}
	return strings.TrimSuffix(scheme+"://"+host+basePath, "/")
}

package templates

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, opts Options) *Registry {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func petModel() ir.Model {
	return ir.Model{
		Name:        "Pet",
		Kind:        ir.KindInterface,
		Description: "A pet",
		Imports:     []string{"Tag"},
		Properties: []ir.Property{
			{Name: "id", ExportName: "id", Required: true, Model: &ir.Model{Kind: ir.KindGeneric, Type: "integer"}},
			{Name: "name", ExportName: "name", Model: &ir.Model{Kind: ir.KindGeneric, Type: "string", Description: "Pet name"}},
			{Name: "owner", ExportName: "owner", Model: &ir.Model{Kind: ir.KindReference, Ref: "Pet", Lazy: true}},
			{Name: "tags", ExportName: "tags", Model: &ir.Model{Kind: ir.KindArray, Items: &ir.Model{Kind: ir.KindReference, Ref: "Tag"}}},
			{Name: "x-trace", ExportName: `"x-trace"`, Model: &ir.Model{Kind: ir.KindGeneric, Type: "string", Nullable: true}},
		},
	}
}

func statusModel() ir.Model {
	return ir.Model{
		Name: "Status",
		Kind: ir.KindEnum,
		Type: "string",
		Enum: []ir.EnumValue{
			{Value: "available", Name: "AVAILABLE", Description: "In stock"},
			{Value: "sold", Name: "SOLD"},
		},
	}
}

func TestNew_AllClients(t *testing.T) {
	t.Parallel()
	want := map[HTTPClient]string{
		Fetch: "new AbortController()",
		XHR:   "new XMLHttpRequest()",
		Node:  "from 'node-fetch'",
		Axios: "axios.request(requestConfig)",
	}
	client := &ir.Client{Server: "https://api.example.com/v1", Version: "1.0.0"}
	for _, c := range HTTPClients() {
		r := mustNew(t, Options{HTTPClient: c})
		out, err := r.Core("request", client)
		require.NoError(t, err, c)
		assert.Contains(t, string(out), want[c], c)
		assert.Contains(t, string(out), "export const request = <T>(", c)
	}
}

func TestNew_DefaultsToFetch(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	assert.Equal(t, Fetch, r.Options().HTTPClient)
}

func TestNew_UnknownClient(t *testing.T) {
	t.Parallel()
	_, err := New(Options{HTTPClient: "curl"})
	assert.ErrorIs(t, err, generrors.ErrInput)
}

func TestCompile_Malformed(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"templates/model.tmpl":         {Data: []byte(`{{define "model"}}{{if}}{{end}}`)},
		"templates/core/ApiError.tmpl": {Data: []byte(`{{define "core/ApiError"}}{{end}}`)},
		"templates/clients/fetch.tmpl": {Data: []byte(``)},
	}
	_, err := compile(fsys, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, generrors.ErrTemplateCompilation)
}

func TestCompile_MissingTemplate(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"templates/model.tmpl":         {Data: []byte(`{{define "model"}}x{{end}}`)},
		"templates/core/ApiError.tmpl": {Data: []byte(`{{define "core/ApiError"}}{{end}}`)},
		"templates/clients/fetch.tmpl": {Data: []byte(``)},
	}
	_, err := compile(fsys, Options{})
	assert.ErrorIs(t, err, generrors.ErrTemplateCompilation)
}

func TestCore_OpenAPI(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	out, err := r.Core("OpenAPI", &ir.Client{Server: "https://api.example.com/v1", Version: "1.0.0"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "BASE: 'https://api.example.com/v1',")
	assert.Contains(t, string(out), "VERSION: '1.0.0',")

	_, err = r.Core("missing", &ir.Client{})
	assert.ErrorIs(t, err, generrors.ErrInput)
	assert.Equal(t, []string{"ApiError", "ApiRequestOptions", "ApiResult", "CancelablePromise", "OpenAPI", "request"}, r.CoreFiles())
}

func TestModel_Interface(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	out, err := r.Model(petModel())
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "/* generated by swagger2ts - do not edit */"))
	assert.Contains(t, s, "import type { Tag } from './Tag';\n")
	assert.Contains(t, s, "/**\n * A pet\n */\nexport type Pet = {\n")
	assert.Contains(t, s, "    id: number;\n")
	assert.Contains(t, s, "    /**\n     * Pet name\n     */\n    name?: string;\n")
	assert.Contains(t, s, "    owner?: Pet;\n")
	assert.Contains(t, s, "    tags?: Array<Tag>;\n")
	assert.Contains(t, s, "    \"x-trace\"?: string | null;\n")
	assert.True(t, strings.HasSuffix(s, "};\n"))
}

func TestModel_EnumStyles(t *testing.T) {
	t.Parallel()
	out, err := mustNew(t, Options{}).Model(statusModel())
	require.NoError(t, err)
	assert.Contains(t, string(out), "export enum Status {\n    /**\n     * In stock\n     */\n    AVAILABLE = 'available',\n    SOLD = 'sold',\n}\n")

	out, err = mustNew(t, Options{UseUnionTypes: true}).Model(statusModel())
	require.NoError(t, err)
	assert.Contains(t, string(out), "export type Status = ('available' | 'sold');\n")
	assert.NotContains(t, string(out), "export enum")
}

func TestModel_ComposedAndDictionary(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	m := ir.Model{Name: "Animal", Kind: ir.KindAllOf, Members: []*ir.Model{
		{Kind: ir.KindReference, Ref: "Base"},
		{Kind: ir.KindOneOf, Members: []*ir.Model{{Kind: ir.KindReference, Ref: "Cat"}, {Kind: ir.KindReference, Ref: "Dog"}}},
	}}
	out, err := r.Model(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), "export type Animal = (Base & (Cat | Dog));")

	d := ir.Model{Name: "Labels", Kind: ir.KindDictionary, Items: &ir.Model{Kind: ir.KindGeneric, Type: "string"}}
	out, err = r.Model(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), "export type Labels = Record<string, string>;")
}

func TestSchema(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	out, err := r.Schema(ir.Schema{Name: "Pet", Raw: map[string]any{
		"type":       "object",
		"properties": map[string]any{"owner": map[string]any{"$ref": "Pet"}},
	}})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "export const $Pet = {\n")
	assert.Contains(t, s, `"$ref": "Pet"`)
	assert.Contains(t, s, "} as const;\n")
}

func petsService() ir.Service {
	return ir.Service{
		Name:    "Pets",
		Imports: []string{"Error", "Pet"},
		Operations: []ir.Operation{
			{
				Name: "getPet", Method: ir.GET, Path: "/pets/{petId}", Summary: "Find a pet",
				Parameters: []ir.Parameter{
					{Name: "petId", ExportName: "petId", In: ir.InPath, Required: true, Model: &ir.Model{Kind: ir.KindGeneric, Type: "integer"}},
					{Name: "limit", ExportName: "limit", In: ir.InQuery, Default: float64(10), Model: &ir.Model{Kind: ir.KindGeneric, Type: "integer"}},
					{Name: "X-Trace", ExportName: "xTrace", In: ir.InHeader, Model: &ir.Model{Kind: ir.KindGeneric, Type: "string"}},
				},
				Results: []ir.Result{
					{Code: 200, Status: "200", Class: ir.Success, Description: "The pet", Model: &ir.Model{Kind: ir.KindReference, Ref: "Pet"}},
					{Code: 404, Status: "404", Class: ir.Failure, Description: "Not `found`"},
					{Code: 0, Status: "default", Class: ir.Failure, Model: &ir.Model{Kind: ir.KindReference, Ref: "Error"}},
				},
			},
			{
				Name: "uploadPhoto", Method: ir.POST, Path: "/pets/{petId}/photo",
				Parameters: []ir.Parameter{
					{Name: "body", ExportName: "formData", In: ir.InBody, Required: true, MediaType: "multipart/form-data",
						Model: &ir.Model{Kind: ir.KindInterface, Properties: []ir.Property{
							{Name: "file", ExportName: "file", Required: true, Model: &ir.Model{Kind: ir.KindGeneric, Type: "file"}},
						}}},
				},
				Results: []ir.Result{{Code: 204, Status: "204", Class: ir.Success}},
			},
		},
	}
}

func TestService_Positional(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	out, err := r.Service(petsService(), ServicePaths{Models: "../models", Core: "../core"})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "import type { Error } from '../models/Error';\nimport type { Pet } from '../models/Pet';\n")
	assert.Contains(t, s, "import { request as __request } from '../core/request';")
	assert.Contains(t, s, "export class PetsService {")
	assert.Contains(t, s, "     * Find a pet\n")
	assert.Contains(t, s, "     * @returns Pet The pet\n")
	assert.Contains(t, s, "    public static getPet(\n        petId: number,\n        limit: number = 10,\n        xTrace?: string,\n    ): CancelablePromise<Pet> {")
	assert.Contains(t, s, "            method: 'GET',\n            url: '/pets/{petId}',\n")
	assert.Contains(t, s, "            path: {\n                'petId': petId,\n            },\n")
	assert.Contains(t, s, "            headers: {\n                'X-Trace': xTrace,\n            },\n")
	assert.Contains(t, s, "            query: {\n                'limit': limit,\n            },\n")
	assert.Contains(t, s, "            errors: {\n                404: `Not \\`found\\``,\n            },\n")
	assert.Contains(t, s, "            formData: formData,\n            mediaType: 'multipart/form-data',\n")
	assert.Contains(t, s, "): CancelablePromise<void> {")
}

func TestService_NamedOptions(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{UseOptions: true})
	out, err := r.Service(petsService(), ServicePaths{Models: "../models", Core: "../core"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "    public static getPet({\n        petId,\n        limit = 10,\n        xTrace,\n    }: {\n        petId: number,\n        limit?: number,\n        xTrace?: string,\n    }): CancelablePromise<Pet> {")
}

func TestIndex(t *testing.T) {
	t.Parallel()
	r := mustNew(t, Options{})
	data := IndexData{
		Models:         []ir.Model{petModel(), statusModel()},
		Schemas:        []ir.Schema{{Name: "Pet"}},
		Services:       []ir.Service{{Name: "Pets"}},
		ExportCore:     true,
		ExportModels:   true,
		ExportServices: true,
		CorePath:       "./core",
		ModelsPath:     "./models",
		SchemasPath:    "./schemas",
		ServicesPath:   "../services",
	}
	out, err := r.Index(data)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "export { ApiError } from './core/ApiError';")
	assert.Contains(t, s, "export type { Pet } from './models/Pet';")
	assert.Contains(t, s, "export { Status } from './models/Status';")
	assert.Contains(t, s, "export { PetsService } from '../services/PetsService';")
	assert.NotContains(t, s, "$Pet")

	data.ExportSchemas = true
	data.ExportCore = false
	out, err = r.Index(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), "export { $Pet } from './schemas/$Pet';")
	assert.NotContains(t, string(out), "ApiError")
}

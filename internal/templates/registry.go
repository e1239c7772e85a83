// Package templates compiles the TypeScript code templates used by the emitter.
//
// Templates are embedded with go:embed and parsed once per Registry with a FuncMap bound to
// the generation Options. A Registry is immutable after New and safe for concurrent use.
package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"slices"
	"text/template"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

//go:embed templates
var templateFS embed.FS

// HTTPClient selects the transport implementation of the generated core/request.ts.
type HTTPClient string

const (
	Fetch HTTPClient = "fetch"
	XHR   HTTPClient = "xhr"
	Node  HTTPClient = "node"
	Axios HTTPClient = "axios"
)

// HTTPClients lists the supported transports.
func HTTPClients() []HTTPClient { return []HTTPClient{Fetch, XHR, Node, Axios} }

// Valid reports whether c is a supported transport.
func (c HTTPClient) Valid() bool { return slices.Contains(HTTPClients(), c) }

// Options select the template variants.
type Options struct {
	HTTPClient    HTTPClient // default Fetch
	UseOptions    bool       // service methods take one named-options object
	UseUnionTypes bool       // enums render as string literal unions
}

// CoreFiles are the support files rendered under the core directory, without extension.
var coreFiles = []string{"ApiError", "ApiRequestOptions", "ApiResult", "CancelablePromise", "OpenAPI", "request"}

// Registry renders the output files of one generation run.
type Registry struct {
	opts Options
	tmpl *template.Template
}

// New compiles the embedded templates for opts.
func New(opts Options) (*Registry, error) {
	return compile(templateFS, opts)
}

func compile(fsys fs.FS, opts Options) (*Registry, error) {
	if opts.HTTPClient == "" {
		opts.HTTPClient = Fetch
	}
	if !opts.HTTPClient.Valid() {
		return nil, generrors.New(generrors.InputError, "unknown http client %q (want fetch, xhr, node or axios)", opts.HTTPClient)
	}
	f := funcs{opts: opts}
	tmpl, err := template.New("swagger2ts").
		Funcs(f.funcMap()).
		ParseFS(fsys, "templates/*.tmpl", "templates/core/*.tmpl", "templates/clients/"+string(opts.HTTPClient)+".tmpl")
	if err != nil {
		return nil, generrors.Wrap(generrors.TemplateCompilationError, err, "compile templates: %v", err)
	}
	required := []string{"header", "model", "schema", "service", "index", "request/imports", "request/send"}
	for _, name := range coreFiles {
		required = append(required, "core/"+name)
	}
	for _, name := range required {
		if tmpl.Lookup(name) == nil {
			return nil, generrors.New(generrors.TemplateCompilationError, "template %q is not defined for client %s", name, opts.HTTPClient)
		}
	}
	return &Registry{opts: opts, tmpl: tmpl}, nil
}

// Options returns the options the registry was compiled with.
func (r *Registry) Options() Options { return r.opts }

// CoreFiles returns the names of the core support files.
func (r *Registry) CoreFiles() []string { return slices.Clone(coreFiles) }

// CoreData feeds the core templates.
type CoreData struct {
	Server     string
	Version    string
	HTTPClient HTTPClient
}

// Core renders the core file name (one of CoreFiles).
func (r *Registry) Core(name string, c *ir.Client) ([]byte, error) {
	if !slices.Contains(coreFiles, name) {
		return nil, generrors.New(generrors.InputError, "unknown core file %q", name)
	}
	return r.render("core/"+name, CoreData{Server: c.Server, Version: c.Version, HTTPClient: r.opts.HTTPClient})
}

// Model renders one model file.
func (r *Registry) Model(m ir.Model) ([]byte, error) {
	return r.render("model", m)
}

// Schema renders one validation schema file.
func (r *Registry) Schema(s ir.Schema) ([]byte, error) {
	return r.render("schema", s)
}

// ServicePaths are the import paths from the services directory to the other categories.
type ServicePaths struct {
	Models string // e.g. "../models"
	Core   string // e.g. "../core"
}

type serviceData struct {
	Service    ir.Service
	ModelsPath string
	CorePath   string
}

// Service renders one service class.
func (r *Registry) Service(s ir.Service, paths ServicePaths) ([]byte, error) {
	return r.render("service", serviceData{Service: s, ModelsPath: paths.Models, CorePath: paths.Core})
}

// IndexData feeds the index template. Paths are relative to the index file and start
// with "./" or "../".
type IndexData struct {
	Models   []ir.Model
	Schemas  []ir.Schema
	Services []ir.Service

	ExportCore     bool
	ExportModels   bool
	ExportSchemas  bool
	ExportServices bool

	CorePath     string
	ModelsPath   string
	SchemasPath  string
	ServicesPath string
}

// Index renders the index file.
func (r *Registry) Index(data IndexData) ([]byte, error) {
	return r.render("index", data)
}

func (r *Registry) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, generrors.Wrap(generrors.TemplateCompilationError, err, "render %s: %v", name, err)
	}
	return buf.Bytes(), nil
}

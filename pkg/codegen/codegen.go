// Package codegen is the public entry point of swagger2ts: it turns a Swagger 2.0 or
// OpenAPI 3.x document into a TypeScript client source tree.
//
//	res, err := codegen.Generate(ctx, codegen.Options{
//	    Input:  "petstore.yaml",
//	    Output: "./generated",
//	    ...
//	})
//
// Start from DefaultOptions to get the standard export categories.
package codegen

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mark3labs/swagger2ts/internal/emitter"
	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/parser"
	"github.com/mark3labs/swagger2ts/internal/postprocess"
	"github.com/mark3labs/swagger2ts/internal/resolve"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/internal/templates"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// HTTPClient selects the transport of the generated core/request.ts.
type HTTPClient = templates.HTTPClient

const (
	Fetch = templates.Fetch
	XHR   = templates.XHR
	Node  = templates.Node
	Axios = templates.Axios
)

// HTTPClients lists the supported transports.
func HTTPClients() []HTTPClient { return templates.HTTPClients() }

// Options configures one generation run.
type Options struct {
	// Input is a file path or http(s) URL. Ignored when Document is set.
	Input string
	// Document is an already decoded spec. It is copied, never modified.
	Document map[string]any

	Output         string // root directory; holds index.ts
	OutputCore     string // default <Output>/core
	OutputModels   string // default <Output>/models
	OutputSchemas  string // default <Output>/schemas
	OutputServices string // default <Output>/services

	HTTPClient    HTTPClient
	UseOptions    bool
	UseUnionTypes bool

	ExportCore     bool
	ExportServices bool
	ExportModels   bool
	ExportSchemas  bool

	// Request replaces the generated core/request.ts with the content of this file.
	Request string
	// Write persists the file set; when false the run only plans it.
	Write bool
	Force bool

	IncludeTags []string
	ExcludeTags []string

	HTTPTimeout time.Duration // spec download timeout; zero keeps the loader default
	MaxRetries  int           // spec download retries; zero keeps the loader default

	Logger         *slog.Logger
	TracerProvider trace.TracerProvider // nil uses the global provider
}

// DefaultOptions returns the standard settings: fetch transport, positional arguments,
// enums, core/services/models exported, schemas not exported, write enabled.
func DefaultOptions() Options {
	return Options{
		HTTPClient:     Fetch,
		ExportCore:     true,
		ExportServices: true,
		ExportModels:   true,
		ExportSchemas:  false,
		Write:          true,
	}
}

// Result describes a finished run.
type Result struct {
	Client *ir.Client
	// Files lists the output tree relative to Output, sorted by path.
	Files []emitter.PlannedFile
	// Contents maps each planned path to its content.
	Contents map[string][]byte
}

const tracerName = "github.com/mark3labs/swagger2ts/pkg/codegen"

// Generate runs the pipeline: load, parse, resolve, name, post-process, compile templates
// and emit. The first error aborts the run; errors carry a generrors.Code.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.Output) == "" {
		return nil, generrors.New(generrors.InputError, "output directory is required")
	}
	if opts.Document == nil && strings.TrimSpace(opts.Input) == "" {
		return nil, generrors.New(generrors.InputError, "input is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "swagger2ts.generate")
	defer span.End()
	p := &pipeline{tracer: tracer, logger: logger}

	var raw spec.RawSpec
	err := p.stage(ctx, "swagger2ts.load", func(ctx context.Context, s trace.Span) error {
		if opts.Document != nil {
			raw = spec.FromDocument(opts.Document)
			s.SetAttributes(attribute.String("input", "document"))
			return nil
		}
		loadOpts := []spec.Option{spec.WithLogger(logger)}
		if opts.HTTPTimeout > 0 {
			loadOpts = append(loadOpts, spec.WithHTTPTimeout(opts.HTTPTimeout))
		}
		if opts.MaxRetries > 0 {
			loadOpts = append(loadOpts, spec.WithMaxRetries(opts.MaxRetries))
		}
		s.SetAttributes(attribute.String("input", opts.Input))
		var err error
		raw, err = spec.Load(ctx, opts.Input, loadOpts...)
		return err
	})
	if err != nil {
		return nil, p.fail(span, err)
	}

	var draft *ir.Draft
	err = p.stage(ctx, "swagger2ts.parse", func(_ context.Context, s trace.Span) error {
		var err error
		draft, err = parser.Parse(raw,
			parser.WithIncludeTags(opts.IncludeTags),
			parser.WithExcludeTags(opts.ExcludeTags),
			parser.WithLogger(logger))
		if err == nil {
			s.SetAttributes(
				attribute.String("spec.version", draft.Version),
				attribute.Int("models", len(draft.Models)),
				attribute.Int("services", len(draft.Services)))
		}
		return err
	})
	if err != nil {
		return nil, p.fail(span, err)
	}

	err = p.stage(ctx, "swagger2ts.resolve", func(_ context.Context, s trace.Span) error {
		var err error
		draft, err = resolve.Resolve(draft, resolve.WithLogger(logger))
		if err == nil {
			s.SetAttributes(attribute.Int("models", len(draft.Models)))
		}
		return err
	})
	if err != nil {
		return nil, p.fail(span, err)
	}

	err = p.stage(ctx, "swagger2ts.name", func(_ context.Context, _ trace.Span) error {
		var err error
		draft, err = naming.Assign(draft, naming.WithLogger(logger))
		return err
	})
	if err != nil {
		return nil, p.fail(span, err)
	}

	var client *ir.Client
	_ = p.stage(ctx, "swagger2ts.postprocess", func(_ context.Context, s trace.Span) error {
		client = postprocess.Finalize(draft, postprocess.WithLogger(logger))
		s.SetAttributes(
			attribute.Int("models", len(client.Models)),
			attribute.Int("services", len(client.Services)),
			attribute.Int("schemas", len(client.Schemas)))
		return nil
	})

	var reg *templates.Registry
	err = p.stage(ctx, "swagger2ts.templates", func(_ context.Context, s trace.Span) error {
		s.SetAttributes(attribute.String("http_client", string(opts.HTTPClient)))
		var err error
		reg, err = templates.New(templates.Options{
			HTTPClient:    opts.HTTPClient,
			UseOptions:    opts.UseOptions,
			UseUnionTypes: opts.UseUnionTypes,
		})
		return err
	})
	if err != nil {
		return nil, p.fail(span, err)
	}

	var emitted *emitter.Result
	err = p.stage(ctx, "swagger2ts.emit", func(ctx context.Context, s trace.Span) error {
		var err error
		emitted, err = emitter.Emit(ctx, client, reg, emitter.Options{
			Output:         opts.Output,
			OutputCore:     opts.OutputCore,
			OutputModels:   opts.OutputModels,
			OutputSchemas:  opts.OutputSchemas,
			OutputServices: opts.OutputServices,
			ExportCore:     opts.ExportCore,
			ExportModels:   opts.ExportModels,
			ExportSchemas:  opts.ExportSchemas,
			ExportServices: opts.ExportServices,
			Request:        opts.Request,
			Write:          opts.Write,
			Force:          opts.Force,
			Logger:         logger,
		})
		if err == nil {
			s.SetAttributes(attribute.Int("files", len(emitted.Planned)), attribute.Bool("write", opts.Write))
		}
		return err
	})
	if err != nil {
		return nil, p.fail(span, err)
	}

	logger.Info("generation complete",
		slog.String("output", opts.Output),
		slog.Int("models", len(client.Models)),
		slog.Int("services", len(client.Services)),
		slog.Int("files", len(emitted.Planned)))
	return &Result{Client: client, Files: emitted.Planned, Contents: emitted.Files}, nil
}

type pipeline struct {
	tracer trace.Tracer
	logger *slog.Logger
}

// stage runs fn inside a child span named name.
func (p *pipeline) stage(ctx context.Context, name string, fn func(context.Context, trace.Span) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()
	start := time.Now()
	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	p.logger.Debug("stage finished", slog.String("stage", name), slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (p *pipeline) fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	if code := generrors.CodeOf(err); code != "" {
		span.SetAttributes(attribute.String("error.code", string(code)))
	}
	p.logger.Debug("generation failed", slog.Any("error", err))
	return err
}

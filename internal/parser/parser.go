// Package parser turns a Swagger 2.0 or OpenAPI 3.x document into a draft IR.
//
// Both version front-ends decode the RawSpec into kin-openapi's typed documents without
// resolving references, walk paths in sorted order, and hand every schema to the shared
// builder. Schema references stay unresolved pointers; the resolve package handles them.
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// Option configures parsing.
type Option func(*config)

type config struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	logger      *slog.Logger
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) Option {
	return func(c *config) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.includeTags == nil {
				c.includeTags = make(map[string]struct{}, len(tags))
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) Option {
	return func(c *config) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.excludeTags == nil {
				c.excludeTags = make(map[string]struct{}, len(tags))
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithLogger sets the logger for parse decisions.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// versionParser produces a draft from a document of one major version.
type versionParser func(doc spec.RawSpec, b *builder) (*ir.Draft, error)

var parsers = map[spec.Version]versionParser{
	spec.V2: parseV2,
	spec.V3: parseV3,
}

// Parse detects the document version and runs the matching parser. raw is never modified.
func Parse(raw spec.RawSpec, opts ...Option) (*ir.Draft, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	v, err := spec.DetectVersion(raw)
	if err != nil {
		return nil, err
	}
	p, ok := parsers[v]
	if !ok {
		return nil, generrors.New(generrors.UnsupportedSpecVersion, "unsupported spec version: %s", v)
	}

	doc := prepare(raw)
	b := &builder{
		doc:     doc,
		cfg:     cfg,
		logger:  cfg.logger.With("component", "parser", "version", v.String()),
		hoisted: map[string]*ir.Model{},
	}
	draft, err := p(doc, b)
	if err != nil {
		return nil, err
	}
	draft.Version = infoVersion(doc)
	draft.Models = append(draft.Models, b.anon...)
	b.logger.Debug("draft built",
		slog.Int("models", len(draft.Models)),
		slog.Int("anonymous", len(b.anon)),
		slog.Int("services", len(draft.Services)))
	return draft, nil
}

// builder carries the state shared by both version parsers.
type builder struct {
	doc    spec.RawSpec
	cfg    *config
	logger *slog.Logger

	// anon holds hoisted inline schemas in discovery order; hoisted indexes them by pointer.
	anon    []*ir.Model
	hoisted map[string]*ir.Model

	services map[string]*ir.Service
	order    []*ir.Service
}

// methodOrder is the fixed walk order of operations inside a path item.
var methodOrder = []ir.HttpMethod{ir.GET, ir.PUT, ir.POST, ir.DELETE, ir.OPTIONS, ir.HEAD, ir.PATCH, ir.TRACE}

func (b *builder) allow(tags []string) bool {
	if len(b.cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := b.cfg.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := b.cfg.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

// DefaultService is the alias of the service collecting untagged operations.
const DefaultService = "Default"

// addOperation files op under the service of its first tag.
func (b *builder) addOperation(op ir.Operation) {
	alias := op.Tag
	if alias == "" {
		alias = DefaultService
	}
	if b.services == nil {
		b.services = map[string]*ir.Service{}
	}
	svc, ok := b.services[alias]
	if !ok {
		svc = &ir.Service{Alias: alias}
		b.services[alias] = svc
		b.order = append(b.order, svc)
	}
	svc.Operations = append(svc.Operations, op)
}

// hoist lifts inline object, enum and composed schemas out of an operation into anonymous
// models and replaces them with references. Arrays and dictionaries are descended into.
func (b *builder) hoist(m *ir.Model, alias string) *ir.Model {
	if m == nil {
		return nil
	}
	switch {
	case m.Kind == ir.KindInterface || m.Kind == ir.KindEnum || m.Kind.IsComposed():
		if prev, ok := b.hoisted[m.Pointer]; ok {
			return &ir.Model{Kind: ir.KindReference, Ref: prev.Pointer, Pointer: m.Pointer}
		}
		m.Anonymous = true
		m.Alias = alias
		b.hoisted[m.Pointer] = m
		b.anon = append(b.anon, m)
		return &ir.Model{Kind: ir.KindReference, Ref: m.Pointer, Pointer: m.Pointer}
	case m.Kind == ir.KindArray:
		m.Items = b.hoist(m.Items, alias+"Item")
	case m.Kind == ir.KindDictionary:
		m.Items = b.hoist(m.Items, alias+"Value")
	}
	return m
}

// deref follows a non-schema $ref (parameter, request body, response) inside the document
// and decodes the target into out. It returns the pointer of the decoded object.
func (b *builder) deref(ref, from string, out any) (string, error) {
	seen := map[string]struct{}{}
	for {
		if _, loop := seen[ref]; loop {
			return "", generrors.Unresolved(ref, from)
		}
		seen[ref] = struct{}{}
		target, ok := spec.Lookup(b.doc, ref)
		if !ok {
			return "", generrors.Unresolved(ref, from)
		}
		obj, _ := target.(map[string]any)
		if next, ok := obj["$ref"].(string); ok && next != "" {
			ref = next
			continue
		}
		if err := decode(target, out); err != nil {
			return "", &generrors.Error{Code: generrors.ParseError, Message: fmt.Sprintf("decode %s: %v", ref, err), Pointer: ref, Cause: err}
		}
		return ref, nil
	}
}

// object returns the raw mapping at pointer, or nil.
func (b *builder) object(pointer string) map[string]any {
	v, ok := spec.Lookup(b.doc, pointer)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func (b *builder) finish(d *ir.Draft) *ir.Draft {
	d.Services = b.order
	return d
}

// mergeParameters appends op-level parameters to path-level ones; an op-level parameter
// replaces a path-level one with the same location and name. Required parameters move to
// the front, keeping relative order otherwise.
func mergeParameters(pathLevel, opLevel []ir.Parameter) []ir.Parameter {
	key := func(p ir.Parameter) string { return string(p.In) + ":" + p.Name }
	idx := map[string]int{}
	var out []ir.Parameter
	for _, p := range pathLevel {
		idx[key(p)] = len(out)
		out = append(out, p)
	}
	for _, p := range opLevel {
		if i, ok := idx[key(p)]; ok {
			out[i] = p
			continue
		}
		idx[key(p)] = len(out)
		out = append(out, p)
	}
	for i := range out {
		if out[i].In == ir.InPath {
			out[i].Required = true
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Required && !out[j].Required })
	return out
}

// response is one declared response before classification.
type response struct {
	status      string
	description string
	mediaType   string
	model       *ir.Model
}

type statusKind int

const (
	statusInvalid statusKind = iota
	statusExplicit
	statusRange
	statusDefault
)

func classifyStatus(s string) (statusKind, int) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "default") {
		return statusDefault, 0
	}
	if len(s) == 3 && (s[1] == 'X' || s[1] == 'x') && (s[2] == 'X' || s[2] == 'x') && s[0] >= '1' && s[0] <= '5' {
		return statusRange, int(s[0]-'0') * 100
	}
	code, err := strconv.Atoi(s)
	if err != nil || code < 100 || code > 599 {
		return statusInvalid, 0
	}
	return statusExplicit, code
}

// buildResults groups responses into one success result and the error results.
// Success is the lowest explicit 2xx code, else a 2XX range, else default. Errors are
// explicit codes >= 300, 3XX..5XX ranges, and default when success came from elsewhere.
func buildResults(responses []response) []ir.Result {
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].status < responses[j].status })

	success := -1
	successCode := 0
	rangeIdx, defaultIdx := -1, -1
	for i, r := range responses {
		kind, code := classifyStatus(r.status)
		switch kind {
		case statusExplicit:
			if code >= 200 && code < 300 && (success < 0 || code < successCode) {
				success, successCode = i, code
			}
		case statusRange:
			if code == 200 && rangeIdx < 0 {
				rangeIdx = i
			}
		case statusDefault:
			defaultIdx = i
		}
	}
	if success < 0 {
		success = rangeIdx
	}
	if success < 0 {
		success = defaultIdx
	}

	toResult := func(r response, class ir.StatusClass) ir.Result {
		kind, code := classifyStatus(r.status)
		if kind != statusExplicit {
			code = 0
		}
		return ir.Result{
			Code:        code,
			Status:      r.status,
			Class:       class,
			Description: r.description,
			MediaType:   r.mediaType,
			Model:       r.model,
		}
	}

	var out []ir.Result
	if success >= 0 {
		out = append(out, toResult(responses[success], ir.Success))
	}
	for i, r := range responses {
		if i == success {
			continue
		}
		kind, code := classifyStatus(r.status)
		switch {
		case kind == statusExplicit && code >= 300:
		case kind == statusRange && code >= 300:
		case kind == statusDefault:
		default:
			continue
		}
		out = append(out, toResult(r, ir.Failure))
	}
	return out
}

// preferredMedia picks application/json, then any +json type, then the first in sorted order.
func preferredMedia(types []string) string {
	if len(types) == 0 {
		return ""
	}
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)
	for _, t := range sorted {
		if base(t) == "application/json" {
			return t
		}
	}
	for _, t := range sorted {
		if strings.HasSuffix(base(t), "+json") {
			return t
		}
	}
	return sorted[0]
}

func base(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func operationAlias(id string, method ir.HttpMethod, path string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return string(method) + " " + path
}

func infoVersion(doc spec.RawSpec) string {
	info, _ := doc["info"].(map[string]any)
	switch v := info["version"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func decode(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "x-") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

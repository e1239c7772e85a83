// Package ir holds the intermediate representation shared by every stage of the generator:
// the Draft produced by the version parsers and refined by the resolver and the name
// sanitizer, and the final immutable Client consumed by templates and the emitter.
//
// Models form an arena: Client.Models owns every named type, and all cross references
// between types are by-name Reference nodes, never embedded copies. This keeps cyclic
// schema graphs finite.
package ir

type HttpMethod string

const (
	GET     HttpMethod = "get"
	PUT     HttpMethod = "put"
	POST    HttpMethod = "post"
	DELETE  HttpMethod = "delete"
	OPTIONS HttpMethod = "options"
	HEAD    HttpMethod = "head"
	PATCH   HttpMethod = "patch"
	TRACE   HttpMethod = "trace"
)

// Kind is the discriminant of a Model node.
type Kind string

const (
	KindGeneric    Kind = "generic" // primitive alias: string, number, integer, boolean, binary, any, null
	KindInterface  Kind = "interface"
	KindEnum       Kind = "enum"
	KindArray      Kind = "array"
	KindDictionary Kind = "dictionary"
	KindAllOf      Kind = "all-of"
	KindOneOf      Kind = "one-of"
	KindAnyOf      Kind = "any-of"
	KindReference  Kind = "reference"
)

// IsComposed reports whether k is one of the composition kinds.
func (k Kind) IsComposed() bool {
	return k == KindAllOf || k == KindOneOf || k == KindAnyOf
}

// Location is where a parameter travels on the wire.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
	InCookie Location = "cookie"
	InBody   Location = "body"
)

// Valid reports whether l is a known parameter location.
func (l Location) Valid() bool {
	switch l {
	case InPath, InQuery, InHeader, InCookie, InBody:
		return true
	}
	return false
}

// StatusClass groups results by status code.
type StatusClass string

const (
	Success StatusClass = "success"
	Failure StatusClass = "error"
)

// Model is a node of the type graph. Top-level models carry a Name; nested nodes
// (property types, array items, composition members) are anonymous trees that end
// either in primitives or in Reference nodes.
type Model struct {
	Name        string // export name; empty on nested nodes
	Alias       string // name as written in the document, or the synthesized context name
	Pointer     string // JSON pointer of the node in the source document
	Kind        Kind
	Type        string // primitive type for KindGeneric
	Format      string
	Description string
	Deprecated  bool
	Nullable    bool
	Default     any

	// Ref is the target of a KindReference node: a JSON pointer until names are
	// assigned, the target's export name afterwards.
	Ref string
	// Lazy marks a reference that closes a cycle in the type graph.
	Lazy bool

	Properties []Property
	Enum       []EnumValue
	Items      *Model   // array element or dictionary value
	Members    []*Model // composition members

	// Anonymous marks models synthesized from inline schemas; only these take part in
	// structural deduplication and pruning.
	Anonymous bool
	// Imports lists export names of the models this model references (post-processed).
	Imports []string
}

// Property is a named member of an interface model.
type Property struct {
	Name       string // wire name
	ExportName string // sanitized identifier
	Required   bool
	Model      *Model
}

// EnumValue is one member of an enum model.
type EnumValue struct {
	Value       any
	Name        string
	Description string
}

// Parameter is one input of an operation.
type Parameter struct {
	Name        string // wire name
	ExportName  string
	In          Location
	Required    bool
	Description string
	Default     any
	MediaType   string // body only
	Model       *Model
}

// Result is one response shape of an operation.
type Result struct {
	Code        int    // 0 for default or range codes
	Status      string // code as declared: "200", "4XX", "default"
	Class       StatusClass
	Description string
	MediaType   string
	Model       *Model // nil when the response has no body
}

// Operation is one callable endpoint.
type Operation struct {
	ID          string // operationId, or a synthesized id when absent
	Name        string // export name
	Method      HttpMethod
	Path        string
	Summary     string
	Description string
	Deprecated  bool
	Tag         string
	Parameters  []Parameter
	Results     []Result
}

// Success returns the success result, if any.
func (o *Operation) Success() *Result {
	for i := range o.Results {
		if o.Results[i].Class == Success {
			return &o.Results[i]
		}
	}
	return nil
}

// Errors returns the error results in declaration order.
func (o *Operation) Errors() []Result {
	var out []Result
	for _, r := range o.Results {
		if r.Class == Failure {
			out = append(out, r)
		}
	}
	return out
}

// Service groups the operations of one tag.
type Service struct {
	Name       string // export name
	Alias      string // tag as written in the document
	Operations []Operation
	Imports    []string
}

// Schema is the raw schema document of a model, emitted as a validation schema.
type Schema struct {
	Name    string
	Pointer string
	Raw     any
}

// Draft is the pre-finalization IR. The version parsers build it, and every later
// stage returns a new Draft rather than editing its input.
type Draft struct {
	Version  string
	Server   string
	Models   []*Model // named definitions first, then anonymous models in discovery order
	Services []*Service
	Schemas  []*Schema
}

// Client is the finalized, sorted snapshot handed to templates and the emitter.
// It must not be mutated after post-processing.
type Client struct {
	Server   string
	Version  string
	Models   []Model
	Services []Service
	Schemas  []Schema
}

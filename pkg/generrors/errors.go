// Package generrors provides the error kinds surfaced by a swagger2ts generation run.
//
// Every failure is fatal to the run. Callers distinguish kinds with errors.Is against the
// sentinels below, or extract details with errors.As:
//
//	_, err := codegen.Generate(ctx, opts)
//	if errors.Is(err, generrors.ErrUnresolvedReference) {
//	    var ge *generrors.Error
//	    errors.As(err, &ge)
//	    fmt.Println("missing:", ge.Pointer)
//	}
package generrors

import (
	"errors"
	"fmt"
)

// Code categorizes a generation error.
type Code string

const (
	// InputError reports an unusable input location or option.
	InputError Code = "InputError"
	// NetworkError reports a failure fetching a remote spec.
	NetworkError Code = "NetworkError"
	// ParseError reports a document that is not valid YAML/JSON or does not fit the Swagger/OpenAPI grammar.
	ParseError Code = "ParseError"
	// UnsupportedSpecVersion reports a document that is neither Swagger 2 nor OpenAPI 3.
	UnsupportedSpecVersion Code = "UnsupportedSpecVersion"
	// UnresolvedReference reports a pointer that targets a missing definition.
	UnresolvedReference Code = "UnresolvedReference"
	// TemplateCompilationError reports a code template that failed to compile.
	TemplateCompilationError Code = "TemplateCompilationError"
	// WriteFailure reports a file that could not be persisted.
	WriteFailure Code = "WriteFailure"
)

// Sentinel errors for use with errors.Is.
var (
	ErrInput                  = errors.New("input error")
	ErrNetwork                = errors.New("network error")
	ErrParse                  = errors.New("parse error")
	ErrUnsupportedSpecVersion = errors.New("unsupported spec version")
	ErrUnresolvedReference    = errors.New("unresolved reference")
	ErrTemplateCompilation    = errors.New("template compilation error")
	ErrWriteFailure           = errors.New("write failure")
)

var sentinels = map[Code]error{
	InputError:               ErrInput,
	NetworkError:             ErrNetwork,
	ParseError:               ErrParse,
	UnsupportedSpecVersion:   ErrUnsupportedSpecVersion,
	UnresolvedReference:      ErrUnresolvedReference,
	TemplateCompilationError: ErrTemplateCompilation,
	WriteFailure:             ErrWriteFailure,
}

// Error is a structured generation error with optional location and JSON pointer.
type Error struct {
	Code     Code
	Message  string
	Location string // file path, URL or output path
	Pointer  string // e.g. "#/components/schemas/Pet"
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for the error's Code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// New builds an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error carrying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Unresolved reports a pointer that could not be resolved from the referencing location.
func Unresolved(pointer, from string) *Error {
	return &Error{
		Code:     UnresolvedReference,
		Message:  fmt.Sprintf("unresolved reference %q (referenced from %s)", pointer, from),
		Location: from,
		Pointer:  pointer,
	}
}

// CodeOf returns the Code of the first *Error in err's chain, or "" when none.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

package spec

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// Version is the major version of a spec document.
type Version int

const (
	V2 Version = 2
	V3 Version = 3
)

func (v Version) String() string { return "v" + strconv.Itoa(int(v)) }

// DetectVersion inspects the top-level "swagger" / "openapi" keys.
// Swagger "2.x" yields V2, OpenAPI "3.x" yields V3; anything else is UnsupportedSpecVersion.
func DetectVersion(raw RawSpec) (Version, error) {
	if s, ok := versionString(raw["openapi"]); ok {
		if strings.HasPrefix(s, "3.") || s == "3" {
			return V3, nil
		}
		return 0, unsupported("openapi", s)
	}
	if s, ok := versionString(raw["swagger"]); ok {
		if strings.HasPrefix(s, "2.") || s == "2" {
			return V2, nil
		}
		return 0, unsupported("swagger", s)
	}
	return 0, &generrors.Error{
		Code:    generrors.UnsupportedSpecVersion,
		Message: "unsupported spec version: document declares neither \"swagger\" nor \"openapi\"",
	}
}

func versionString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case int:
		return strconv.Itoa(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprint(t), true
	}
}

func unsupported(key, value string) error {
	return &generrors.Error{
		Code:    generrors.UnsupportedSpecVersion,
		Message: fmt.Sprintf("unsupported spec version: %s %q", key, value),
	}
}

// Lookup resolves an internal JSON pointer ("#/a/b") against doc.
func Lookup(doc any, pointer string) (any, bool) {
	if !strings.HasPrefix(pointer, "#") {
		return nil, false
	}
	frag := strings.TrimPrefix(pointer, "#")
	if u, err := url.PathUnescape(frag); err == nil {
		frag = u
	}
	if raw, ok := doc.(RawSpec); ok {
		doc = map[string]any(raw)
	}
	p, err := jsonpointer.New(frag)
	if err != nil {
		return nil, false
	}
	v, _, err := p.Get(doc)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Tokens splits an internal JSON pointer into its decoded segments.
func Tokens(pointer string) []string {
	frag := strings.TrimPrefix(pointer, "#")
	if u, err := url.PathUnescape(frag); err == nil {
		frag = u
	}
	p, err := jsonpointer.New(frag)
	if err != nil {
		return nil
	}
	return p.DecodedTokens()
}

// Join builds an internal JSON pointer from raw segments.
func Join(tokens ...string) string {
	var b strings.Builder
	b.WriteString("#")
	for _, t := range tokens {
		b.WriteString("/")
		b.WriteString(jsonpointer.Escape(t))
	}
	return b.String()
}

// Canonical rewrites an internal pointer into the form Join produces, so that
// "#/components/schemas/Pet%20Owner" and "#/components/schemas/Pet Owner" compare equal.
// External or malformed references are returned unchanged.
func Canonical(pointer string) string {
	if !strings.HasPrefix(pointer, "#") {
		return pointer
	}
	frag := strings.TrimPrefix(pointer, "#")
	if u, err := url.PathUnescape(frag); err == nil {
		frag = u
	}
	if _, err := jsonpointer.New(frag); err != nil {
		return pointer
	}
	return Join(Tokens(pointer)...)
}

// EscapeToken encodes s for use as one JSON pointer segment.
func EscapeToken(s string) string { return jsonpointer.Escape(s) }

// Package naming maps spec identifiers to valid, collision-free TypeScript identifiers.
//
// Case conversion follows the usual codegen conventions: models and services use
// PascalCase, operations and parameters camelCase, enum members UPPER_SNAKE_CASE.
// Reserved words are escaped with a trailing underscore; collisions get a numeric suffix
// in first-seen order.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// words splits s on every rune that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Pascal converts s to PascalCase. Leading characters that cannot start a type name
// (digits and separators) are dropped.
//
//	"pet-category" -> "PetCategory"
//	"List«Pet»"    -> "ListPet"
//	"HTTPResponse" -> "HTTPResponse"
func Pascal(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	var b strings.Builder
	b.Grow(len(s))
	for _, w := range words(s) {
		_, size := utf8.DecodeRuneInString(w)
		b.WriteString(titleCaser.String(w[:size]))
		b.WriteString(w[size:])
	}
	return b.String()
}

// Camel converts s to camelCase.
//
//	"list_pets"  -> "listPets"
//	"ListPets"   -> "listPets"
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return ""
	}
	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

var placeholder = regexp.MustCompile(`\{(.*?)\}`)

// OperationName derives a camelCase name for an operation. The operationId wins when set;
// otherwise the method and path are combined, with path parameters rendered as "by<Name>".
//
//	("", "get", "/pets/{petId}") -> "getPetsByPetId"
func OperationName(operationID, method, path string) string {
	if n := Camel(operationID); n != "" {
		return n
	}
	p := placeholder.ReplaceAllString(path, "by-$1")
	return Camel(method + "-" + strings.ReplaceAll(p, "/", "-"))
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// IsIdentifier reports whether s is a valid identifier in the generated language.
func IsIdentifier(s string) bool { return identRe.MatchString(s) }

// PropertyKey returns s when it can be written as a bare object key, otherwise the quoted key.
func PropertyKey(s string) string {
	if IsIdentifier(s) {
		return s
	}
	return strconv.Quote(s)
}

// EnumKey derives an UPPER_SNAKE_CASE member name from an enum value.
//
//	"in-progress" -> "IN_PROGRESS"
//	"camelCase"   -> "CAMEL_CASE"
//	1             -> "_1"
//	-1.5          -> "_MINUS_1_5"
func EnumKey(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		return strings.ToUpper(strconv.FormatBool(t))
	case float64:
		return "_" + numberKey.Replace(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return "_" + numberKey.Replace(strconv.Itoa(t))
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}

	var b strings.Builder
	prevLower, sep := false, false
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			sep = b.Len() > 0
			prevLower = false
			continue
		}
		if b.Len() > 0 && (sep || (unicode.IsUpper(r) && prevLower)) {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(unicode.ToUpper(r))
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	out := b.String()
	if out == "" {
		return "EMPTY"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

var numberKey = strings.NewReplacer("-", "MINUS_", ".", "_")

// reserved lists words that cannot name a variable or a parameter in strict mode code.
var reserved = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		arguments await break case catch class const continue debugger default delete do
		else enum eval export extends false finally for function if implements import in
		instanceof interface let new null package private protected public return static
		super switch this throw true try typeof undefined var void while with yield`) {
		reserved[w] = struct{}{}
	}
}

// IsReserved reports whether s is a reserved word.
func IsReserved(s string) bool {
	_, ok := reserved[s]
	return ok
}

// Escape appends an underscore to reserved words.
func Escape(s string) string {
	if IsReserved(s) {
		return s + "_"
	}
	return s
}

// Namespace hands out unique names in first-come order.
type Namespace struct {
	taken map[string]struct{}
}

// NewNamespace returns a namespace with the given names already taken.
func NewNamespace(taken ...string) *Namespace {
	ns := &Namespace{taken: make(map[string]struct{}, len(taken))}
	for _, t := range taken {
		ns.taken[t] = struct{}{}
	}
	return ns
}

// Claim returns base if it is free, otherwise base1, base2, ... skipping taken names.
func (ns *Namespace) Claim(base string) string {
	if _, ok := ns.taken[base]; !ok {
		ns.taken[base] = struct{}{}
		return base
	}
	for i := 1; ; i++ {
		n := base + strconv.Itoa(i)
		if _, ok := ns.taken[n]; !ok {
			ns.taken[n] = struct{}{}
			return n
		}
	}
}

// Taken reports whether name has been claimed.
func (ns *Namespace) Taken(name string) bool {
	_, ok := ns.taken[name]
	return ok
}

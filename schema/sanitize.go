package schema

import "strings"

// goKeywords are Go's reserved words; a sanitized identifier must never
// collide with one.
var goKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// goPredeclared are identifiers Go predeclares (builtin types and
// functions); reusing one as a generated type/variable name compiles but
// shadows the builtin for the rest of the file, which is the class of
// collision this sanitizer exists to avoid.
var goPredeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true, "complex64": true,
	"complex128": true, "error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true, "rune": true,
	"string": true, "uint": true, "uint8": true, "uint16": true, "uint32": true,
	"uint64": true, "uintptr": true, "true": true, "false": true, "iota": true,
	"nil": true, "append": true, "cap": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"new": true, "panic": true, "print": true, "println": true, "real": true,
	"recover": true,
}

// sanitizeSuffix is appended to a colliding identifier. Appending (rather
// than prepending or renaming outright) keeps the transform trivially
// idempotent: no reserved word or predeclared identifier ends in "_", so
// a suffixed name no longer collides and is returned unchanged.
const sanitizeSuffix = "_"

// SanitizeIdentifier consistently transforms name so it cannot collide
// with a Go reserved word or predeclared identifier, whether name is used
// as a type name or as a variable/enum member. The transform is
// deterministic (same input always yields the same output) and
// idempotent (re-sanitizing a sanitized name is a no-op).
func SanitizeIdentifier(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)
	if goKeywords[name] || goKeywords[lower] || goPredeclared[lower] {
		return name + sanitizeSuffix
	}
	return name
}

// SanitizeFieldName exports a schema field name as a Go struct field:
// capitalized, then run through SanitizeIdentifier.
func SanitizeFieldName(name string) string {
	if name == "" {
		return name
	}
	exported := strings.ToUpper(name[:1]) + name[1:]
	return SanitizeIdentifier(exported)
}

// Package emitter implements the Codegen Emitter (CGE): it converts a
// planned type (planner.TypePlan) into Go source text — a struct
// declaration plus paired Encode/Decode functions that call bitstream
// operations. It is organized by descriptor kind, each with paired
// emitEncode_X/emitDecode_X methods, and threads a value-path string plus
// an indentation level through the traversal so nested expressions resolve
// against the right Go variable.
package emitter

import (
	"fmt"
	"strings"

	"github.com/binarywire/bwcodec/emitter/expr"
	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// Emitter renders one planned schema to a single Go source file body (sans
// package clause and imports, which generator.Generate assembles once the
// full set of required imports is known).
type Emitter struct {
	schema *schema.Schema
	plan   *planner.Plan
	buf    strings.Builder

	// counter gives each emitted function body's scratch locals (peeked
	// discriminators, loop indices, decode errors) a unique suffix so
	// nested emission never shadows an outer local.
	counter int

	predicates map[string]*expr.Node

	// emittedLazy dedupes the Lazy<Target> wrapper type emitted for lazy
	// instance fields: several composites may declare an instance against
	// the same target type, but the wrapper only needs to exist once.
	emittedLazy map[string]bool
}

// New returns an Emitter ready to render every type in plan.
func New(s *schema.Schema, plan *planner.Plan) *Emitter {
	return &Emitter{schema: s, plan: plan, emittedLazy: map[string]bool{}}
}

// Emit renders every planned type, in declaration order, and returns the
// accumulated source body.
func (e *Emitter) Emit() (string, error) {
	e.EmitLazyWrappers(e.plan)
	for _, tp := range e.plan.Types {
		if err := e.emitType(tp); err != nil {
			return "", fmt.Errorf("emit %s: %w", tp.Name, err)
		}
	}
	return e.buf.String(), nil
}

// Emit1 renders a single planned type and returns just its source body.
// Each call should use a freshly constructed Emitter (via New): the
// Lazy<Target> wrapper dedup state in particular is only meaningful
// within one Emitter, so sharing one across concurrent Emit1 calls would
// race. generator.Generate emits those wrappers once up front via
// EmitLazyWrappers instead, so per-type bodies emitted this way never
// need to declare one themselves.
func (e *Emitter) Emit1(tp *planner.TypePlan) (string, error) {
	if err := e.emitType(tp); err != nil {
		return "", fmt.Errorf("emit %s: %w", tp.Name, err)
	}
	return e.buf.String(), nil
}

func (e *Emitter) emitType(tp *planner.TypePlan) error {
	switch tp.Artifact {
	case planner.ArtifactComposite:
		return e.emitComposite(tp)
	case planner.ArtifactStandaloneCollection:
		return e.emitStandaloneCollection(tp)
	case planner.ArtifactBackRefAlias:
		return e.emitBackRefAlias(tp)
	case planner.ArtifactUnionAlias:
		return e.emitUnionAlias(tp)
	case planner.ArtifactSimpleAlias:
		return e.emitSimpleAlias(tp)
	default:
		return fmt.Errorf("unhandled artifact kind %v", tp.Artifact)
	}
}

// line writes one already-indented source line.
func (e *Emitter) line(indent int, format string, args ...any) {
	e.buf.WriteString(strings.Repeat("\t", indent))
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

func (e *Emitter) blank() { e.buf.WriteByte('\n') }

// fresh returns a unique local variable name built from base, so that
// repeated emission of the same descriptor kind inside one function (e.g.
// two arrays, or a nested union) never collides.
func (e *Emitter) fresh(base string) string {
	e.counter++
	return fmt.Sprintf("%s%d", base, e.counter)
}

// goTypeName is the exported Go identifier for a declared schema type.
func goTypeName(name string) string {
	return schema.SanitizeIdentifier(strings.ReplaceAll(name, "<", "_"))
}

// endiannessExpr renders a schema.Endianness as the bitstream package
// constant the generated code references.
func endiannessExpr(e schema.Endianness) string {
	if e == schema.LittleEndian {
		return "bitstream.LittleEndian"
	}
	return "bitstream.BigEndian"
}

// bitOrderExpr renders a schema.BitOrder as a bitstream package constant.
func bitOrderExpr(b schema.BitOrder) string {
	if b == schema.LSBFirst {
		return "bitstream.LSBFirst"
	}
	return "bitstream.MSBFirst"
}

// resolvePath builds an expr.Resolver closed over the current value-path,
// so a conditional or when-predicate's identifiers render as Go field
// accesses off the in-scope local. basePath is the Go expression naming
// the record the predicate's bare identifiers are relative to (e.g. "v"
// for the composite currently being encoded); peekedName, if non-empty, is
// substituted for the bare identifier "value" (spec.md §4.3: "identifier
// value in the predicate string is rewritten to the peeked local").
func resolvePath(basePath, peekedName string) expr.Resolver {
	return func(path []string) (string, bool) {
		if len(path) == 1 && path[0] == "value" && peekedName != "" {
			return peekedName, true
		}
		if basePath == "" {
			return "", false
		}
		segs := make([]string, len(path))
		for i, p := range path {
			segs[i] = schema.SanitizeFieldName(p)
		}
		return basePath + "." + strings.Join(segs, "."), true
	}
}

package planner

import (
	"github.com/binarywire/bwcodec/schema"
)

// ArtifactKind is what a TypePlan instructs the emitter to produce.
type ArtifactKind int

const (
	// ArtifactComposite plans an input-shape declaration (computed
	// fields omitted), an encoder, a decoder, optional enum tags for
	// each discriminated-union field, and an instance wrapper if the
	// composite declares lazy position fields.
	ArtifactComposite ArtifactKind = iota
	// ArtifactStandaloneCollection plans a type alias plus paired
	// encoder/decoder for a bare array or string type.
	ArtifactStandaloneCollection
	// ArtifactBackRefAlias plans a transparent alias to the target type
	// plus a decoder that follows the pointer.
	ArtifactBackRefAlias
	// ArtifactUnionAlias plans a tagged union declaration, a
	// variant-tag enumeration, and paired encoder/decoder.
	ArtifactUnionAlias
	// ArtifactSimpleAlias plans only the alias; encode/decode defer to
	// the aliased type.
	ArtifactSimpleAlias
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactComposite:
		return "composite"
	case ArtifactStandaloneCollection:
		return "standalone_collection"
	case ArtifactBackRefAlias:
		return "back_reference_alias"
	case ArtifactUnionAlias:
		return "union_alias"
	case ArtifactSimpleAlias:
		return "simple_alias"
	default:
		return "unknown"
	}
}

// PositionTableKey names one reserved per-(arrayField,Type) position
// table a composite's encoder must maintain (spec.md §4.3).
type PositionTableKey struct {
	ArrayField string
	TypeName   string
}

// Name is the runtime key used with bitstream.Encoder's typed-array
// position helpers.
func (k PositionTableKey) Name() string { return k.ArrayField + "." + k.TypeName }

// TypePlan is the per-type artifact decision plus precomputed auxiliary
// state for one declared (non-template) type.
type TypePlan struct {
	Name     string
	Def      *schema.TypeDef
	Artifact ArtifactKind

	// NeedsOutputShape is true when the type has computed fields, so the
	// caller-facing input shape (computed fields omitted) and the
	// decoded output shape (computed fields included) differ.
	NeedsOutputShape bool

	// NeedsEnumTags is true for discriminated_union/choice composites
	// and union aliases. The emitter writes a tag enumeration of variant
	// type names only for union aliases; for a composite the flag is
	// recorded here but nothing is emitted for it.
	NeedsEnumTags bool

	// NeedsInstanceWrapper is true when the composite declares lazy
	// position fields. The composite itself stays a plain struct; each
	// instance field in it is a Lazy<Target> accessor wrapper.
	NeedsInstanceWrapper bool

	// FieldBasedUnionFields names the fields, in declaration order, that
	// are field-based discriminated unions (DiscriminatorField set).
	// Their presence routes decoding through the emitter's
	// emitSequenceDecodeWithLocals, which decodes every field in order
	// straight into the result and lets the union dispatch via
	// if/else-if on the already-decoded discriminator field; it does not
	// use separate locals.
	FieldBasedUnionFields []string

	// PositionTables lists the (arrayField, Type) position tables this
	// composite's encoder must reserve to serve same_index/corresponding
	// and first<T>/last<T> selectors anywhere in the schema that target
	// one of its arrays.
	PositionTables []PositionTableKey
}

// HasFieldBasedUnionInSequence reports whether the composite holds a
// field-based discriminated union (see FieldBasedUnionFields).
func (p *TypePlan) HasFieldBasedUnionInSequence() bool {
	return len(p.FieldBasedUnionFields) > 0
}

// Plan is the complete per-schema planning result: one TypePlan per
// declared, non-template type, in schema declaration order.
type Plan struct {
	Schema *schema.Schema
	Types  []*TypePlan
}

// Lookup returns the TypePlan for name, or nil.
func (p *Plan) Lookup(name string) *TypePlan {
	for _, t := range p.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Planner traverses a schema once and builds its Plan.
type Planner struct {
	schema *schema.Schema
}

// New returns a Planner for s.
func New(s *schema.Schema) *Planner {
	return &Planner{schema: s}
}

// Plan runs the full planning pass: artifact classification per type,
// field-based-union detection, and cross-cutting position-table
// reservation (spec.md §4.3).
func (pl *Planner) Plan() (*Plan, error) {
	result := &Plan{Schema: pl.schema}

	for _, name := range pl.schema.Order {
		if schema.IsTemplateName(name) {
			continue // templates are skipped by top-level emission
		}
		def := pl.schema.Types[name]

		tp, err := pl.planType(def)
		if err != nil {
			return nil, err
		}
		result.Types = append(result.Types, tp)
	}

	if err := pl.reservePositionTables(result); err != nil {
		return nil, err
	}

	return result, nil
}

func (pl *Planner) planType(def *schema.TypeDef) (*TypePlan, error) {
	tp := &TypePlan{Name: def.Name, Def: def}

	switch {
	case def.Composite != nil:
		tp.Artifact = ArtifactComposite
		tp.NeedsInstanceWrapper = def.HasLazyFields()

		if err := pl.validateComposite(def); err != nil {
			return nil, err
		}

		for _, f := range def.Composite.Fields {
			if f.Computed != nil {
				tp.NeedsOutputShape = true
			}
			if f.Element.Kind == schema.KindDiscriminatedUnion {
				tp.NeedsEnumTags = true
				if f.Element.Union.DiscriminatorField != "" {
					tp.FieldBasedUnionFields = append(tp.FieldBasedUnionFields, f.Name)
				}
			}
			if f.Element.Kind == schema.KindChoice {
				tp.NeedsEnumTags = true
			}
		}

	case def.IsStandaloneCollection():
		tp.Artifact = ArtifactStandaloneCollection

	case def.IsBackReferenceAlias():
		tp.Artifact = ArtifactBackRefAlias
		if pl.schema.Lookup(def.Alias.BackRef.Target) == nil && !schema.IsTemplateName(def.Alias.BackRef.Target) {
			return nil, errf(def.Name, "", "back_reference target %q is not a declared type", def.Alias.BackRef.Target)
		}

	case def.IsUnionAlias():
		tp.Artifact = ArtifactUnionAlias
		tp.NeedsEnumTags = true

	default:
		tp.Artifact = ArtifactSimpleAlias
	}

	return tp, nil
}

// validateComposite checks instance alignment, instance target
// existence, and terminal_variants references — the "actionable
// message" failures spec.md §4.3 requires.
func (pl *Planner) validateComposite(def *schema.TypeDef) error {
	for _, inst := range def.Composite.Instances {
		if inst.Alignment != 0 && !isPowerOfTwo(inst.Alignment) {
			return errf(def.Name, inst.Name, "alignment %d is not a positive power of two", inst.Alignment)
		}
		if pl.schema.Lookup(inst.Target) == nil && !schema.IsTemplateName(inst.Target) {
			return errf(def.Name, inst.Name, "instance target %q is not a declared type", inst.Target)
		}
	}

	for _, f := range def.Composite.Fields {
		if err := pl.validateElement(def.Name, f.Name, f.Element); err != nil {
			return err
		}
	}

	return nil
}

func (pl *Planner) validateElement(typeName, fieldName string, e schema.Element) error {
	switch e.Kind {
	case schema.KindArray:
		return pl.validateArray(typeName, fieldName, e.Array)
	case schema.KindString:
		return pl.validateArray(typeName, fieldName, &e.Str.ArraySpec)
	case schema.KindOptional:
		if e.Optional.Value != nil {
			return pl.validateElement(typeName, fieldName, *e.Optional.Value)
		}
	}
	return nil
}

func (pl *Planner) validateArray(typeName, fieldName string, spec *schema.ArraySpec) error {
	if spec.ArrayKind != schema.ArrayNullTerminated || len(spec.TerminalVariants) == 0 {
		return nil
	}
	if spec.Items == nil || spec.Items.Kind != schema.KindDiscriminatedUnion {
		return errf(typeName, fieldName, "terminal_variants is only permitted on null_terminated arrays of a discriminated_union item type")
	}
	declared := make(map[string]bool, len(spec.Items.Union.Variants))
	for _, v := range spec.Items.Union.Variants {
		declared[v.Target] = true
	}
	for _, tv := range spec.TerminalVariants {
		if !declared[tv] {
			return errf(typeName, fieldName, "terminal_variants entry %q is not a declared variant of the item type", tv)
		}
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

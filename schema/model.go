// Package schema is the canonical, read-only in-memory description of one
// schema instance: a global configuration plus a set of named types. It
// mirrors the closed descriptor vocabulary a wire-format schema can use and
// provides no behavior beyond lookups and classification — the planner and
// emitter packages own everything that turns a Schema into source text.
package schema

// Endianness selects byte order for multi-byte primitives and
// length/width prefixes. The zero value means "inherit the enclosing
// default" and must be resolved before code generation.
type Endianness int

const (
	DefaultEndianness Endianness = iota
	BigEndian
	LittleEndian
)

func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "big_endian"
	case LittleEndian:
		return "little_endian"
	default:
		return "default"
	}
}

// BitOrder selects how bits of a sub-byte value are packed into a byte.
type BitOrder int

const (
	DefaultBitOrder BitOrder = iota
	MSBFirst
	LSBFirst
)

func (b BitOrder) String() string {
	switch b {
	case MSBFirst:
		return "msb_first"
	case LSBFirst:
		return "lsb_first"
	default:
		return "default"
	}
}

// Kind is the closed tag vocabulary for element descriptors. Adding a new
// kind is an explicit editing task across schema, planner and emitter —
// the set is never extended dynamically from schema data.
type Kind string

const (
	KindBit                Kind = "bit"
	KindUint8              Kind = "uint8"
	KindUint16             Kind = "uint16"
	KindUint32             Kind = "uint32"
	KindUint64             Kind = "uint64"
	KindInt8               Kind = "int8"
	KindInt16              Kind = "int16"
	KindInt32              Kind = "int32"
	KindInt64              Kind = "int64"
	KindFloat32            Kind = "float32"
	KindFloat64            Kind = "float64"
	KindBitfield           Kind = "bitfield"
	KindArray              Kind = "array"
	KindString             Kind = "string"
	KindDiscriminatedUnion Kind = "discriminated_union"
	KindChoice             Kind = "choice"
	KindBackReference      Kind = "back_reference"
	KindOptional           Kind = "optional"
	KindTypeRef            Kind = "type_ref"
)

// IsPrimitive reports whether k is one of the fixed-width scalar kinds
// (bit excluded — bit(size) is variable-width and handled separately).
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindUint8, KindUint16, KindUint32, KindUint64,
		KindInt8, KindInt16, KindInt32, KindInt64,
		KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}

// FixedWidth returns the byte width of a byte-aligned primitive kind, or 0
// if k has no statically-known fixed width (arrays, strings, unions, ...).
func (k Kind) FixedWidth() int {
	switch k {
	case KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindUint64, KindInt64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// ArrayKind is the closed set of array/string length strategies.
type ArrayKind string

const (
	ArrayFixed              ArrayKind = "fixed"
	ArrayLengthPrefixed     ArrayKind = "length_prefixed"
	ArrayLengthPrefixedItem ArrayKind = "length_prefixed_items"
	ArrayFieldReferenced    ArrayKind = "field_referenced"
	ArrayNullTerminated     ArrayKind = "null_terminated"
	ArraySignatureTerm      ArrayKind = "signature_terminated"
	ArrayEOFTerminated      ArrayKind = "eof_terminated"
)

// StringEncoding is the closed set of text encodings a string descriptor
// may declare.
type StringEncoding string

const (
	EncodingASCII StringEncoding = "ascii"
	EncodingUTF8  StringEncoding = "utf8"
)

// OffsetBase selects what a back_reference's decoded offset is relative to.
type OffsetBase string

const (
	OffsetMessageStart    OffsetBase = "message_start"
	OffsetCurrentPosition OffsetBase = "current_position"
)

// PresenceKind is the closed set of flag widths an optional() value may use
// to signal presence.
type PresenceKind string

const (
	PresenceBit  PresenceKind = "bit"
	PresenceByte PresenceKind = "byte"
)

// ComputedKind is the closed set of write-only derived-field specs.
type ComputedKind string

const (
	ComputedLengthOf       ComputedKind = "length_of"
	ComputedCRC32Of        ComputedKind = "crc32_of"
	ComputedPositionOf     ComputedKind = "position_of"
	ComputedSumOfSizes     ComputedKind = "sum_of_sizes"
	ComputedSumOfTypeSizes ComputedKind = "sum_of_type_sizes"
)

// BitfieldSubField is one named, bit-addressed member of a bitfield(...)
// container.
type BitfieldSubField struct {
	Name   string
	Offset int
	Size   int
}

// BitfieldSpec describes a fixed-total-width container packed from named
// sub-fields, each with its own bit offset and size.
type BitfieldSpec struct {
	TotalSize int
	Fields    []BitfieldSubField
}

// ArraySpec describes a homogeneous repeated sequence and the strategy
// used to delimit it on the wire.
type ArraySpec struct {
	ArrayKind ArrayKind
	Items     *Element

	// ArrayFixed
	Length int

	// ArrayLengthPrefixed / ArrayLengthPrefixedItem
	LengthType Kind

	// ArrayLengthPrefixedItem
	ItemLengthType Kind

	// ArrayFieldReferenced
	LengthField string

	// ArrayNullTerminated, restricted to discriminated_union item kinds
	TerminalVariants []string

	// ArraySignatureTerm
	TerminatorValue      uint64
	TerminatorType       Kind
	TerminatorEndianness Endianness
}

// StringSpec describes a byte-sequence-valued field with a text encoding
// layered on top of the same delimiting strategies as ArraySpec.
type StringSpec struct {
	ArraySpec
	Encoding StringEncoding
}

// Variant is one arm of a discriminated_union or choice: either a
// predicate-gated case, or — when When is empty — the fallback arm.
type Variant struct {
	When   string
	Target string
}

// UnionSpec describes a discriminated_union: a tag that is either peeked
// from the wire (DiscriminatorField empty) or taken from an
// already-decoded sibling field (DiscriminatorField set), followed by an
// ordered list of variants matched by predicate.
type UnionSpec struct {
	DiscriminatorField string
	PeekKind           Kind
	Endianness         Endianness
	Variants           []Variant
}

// ChoiceSpec describes a choice: a flat sum whose tag lives inside the
// variant type itself. Discriminator is optional explicit per-variant tag
// bytes (index-aligned with Variants); when nil the implicit sequential
// 0x01, 0x02, ... default from spec.md §9 applies.
type ChoiceSpec struct {
	Variants      []Variant
	Discriminator []uint8
}

// BackRefSpec describes a compact pointer word that may stand in for a
// previously (or, for current_position, relatively) encoded value.
type BackRefSpec struct {
	StorageWidth Kind
	OffsetMask   uint64
	OffsetBase   OffsetBase
	Target       string
	Endianness   Endianness
}

// OptionalSpec describes a presence-flagged value.
type OptionalSpec struct {
	Value        *Element
	PresenceType PresenceKind
}

// TypeRefSpec references another declared type by name, optionally
// instantiating a parameterized template (e.g. Optional<Footer>).
type TypeRefSpec struct {
	Name string
	Args []string
}

// Element is an unnamed kind-tagged descriptor: an array item, the value
// wrapped by optional(), the body of an alias type, or a union/choice
// variant's payload type is referenced by name rather than inline.
type Element struct {
	Kind       Kind
	Endianness Endianness // per-element override; DefaultEndianness inherits

	BitSize int // KindBit

	Bitfield *BitfieldSpec      // KindBitfield
	Array    *ArraySpec         // KindArray
	Str      *StringSpec        // KindString
	Union    *UnionSpec         // KindDiscriminatedUnion
	Choice   *ChoiceSpec        // KindChoice
	BackRef  *BackRefSpec       // KindBackReference
	Optional *OptionalSpec      // KindOptional
	TypeRef  *TypeRefSpec       // KindTypeRef
}

// ComputedSpec is a write-only derived field: absent from caller-supplied
// input, rejected if present at encode time, and computed from other
// fields when the composite is encoded.
type ComputedSpec struct {
	Kind        ComputedKind
	Target      string   // length_of, crc32_of, position_of
	Encoding    StringEncoding // length_of, optional
	Targets     []string // sum_of_sizes
	ElementType string   // sum_of_type_sizes
}

// Field is one named member of a Composite type.
type Field struct {
	Name        string
	Element     Element
	Conditional string
	Computed    *ComputedSpec
	Description string
}

// Instance is a lazy, seek-based position field: bytes for it are not
// consumed in sequence order but resolved on demand when the generated
// accessor is first invoked.
type Instance struct {
	Name      string
	Target    string
	Position  PositionExpr
	Size      *int
	Alignment int // 0 = unconstrained; otherwise must be a power of two
}

// PositionExpr is the tri-state position an Instance resolves against:
// exactly one of Absolute, EOFRelative, FieldRef is set.
type PositionExpr struct {
	Absolute    *int64
	EOFRelative *int64
	FieldRef    string
}

// CompositeDef is an ordered sequence of fields plus optional lazy
// instance fields.
type CompositeDef struct {
	Fields    []Field
	Instances []Instance
}

// TypeDef is either a Composite (ordered field list) or an Alias (a
// single element descriptor with no intervening wrapper). Standalone
// array/string aliases still need paired encoder/decoder, so they are
// aliases semantically but are never treated as "isAlias" for emission
// purposes — see (*TypeDef).IsAlias.
type TypeDef struct {
	Name        string
	Composite   *CompositeDef
	Alias       *Element
	Description string
}

// ProtocolMeta is optional descriptive metadata carried alongside a
// schema; it has no bearing on codegen and exists purely for downstream
// documentation collaborators (out of scope for this module, per §1).
type ProtocolMeta struct {
	Name    string
	Version string
}

// Schema is the top-level, immutable-after-construction input to the
// generator: global defaults plus a name-to-TypeDef map. Order preserves
// declaration order so that generation is deterministic despite Go's
// randomized map iteration.
type Schema struct {
	DefaultEndianness Endianness
	DefaultBitOrder   BitOrder
	Types             map[string]*TypeDef
	Order             []string
	Protocol          *ProtocolMeta
}

// NewSchema returns an empty schema with the given defaults.
func NewSchema(endianness Endianness, bitOrder BitOrder) *Schema {
	return &Schema{
		DefaultEndianness: endianness,
		DefaultBitOrder:   bitOrder,
		Types:             make(map[string]*TypeDef),
	}
}

// Add registers a type definition, preserving declaration order. It does
// not validate the name; templates (names containing "<") and primitive
// names are both legal here and are filtered by callers as needed.
func (s *Schema) Add(t *TypeDef) {
	if _, exists := s.Types[t.Name]; !exists {
		s.Order = append(s.Order, t.Name)
	}
	s.Types[t.Name] = t
}

// Lookup returns the TypeDef for name, or nil if undeclared.
func (s *Schema) Lookup(name string) *TypeDef {
	return s.Types[name]
}

// ResolveEndianness returns e if it is not DefaultEndianness, else the
// schema's default.
func (s *Schema) ResolveEndianness(e Endianness) Endianness {
	if e != DefaultEndianness {
		return e
	}
	return s.DefaultEndianness
}

// ResolveBitOrder returns b if it is not DefaultBitOrder, else the
// schema's default.
func (s *Schema) ResolveBitOrder(b BitOrder) BitOrder {
	if b != DefaultBitOrder {
		return b
	}
	return s.DefaultBitOrder
}

package emitter

import (
	"fmt"
	"strings"

	"github.com/binarywire/bwcodec/schema"
)

// goType renders the Go type an Element decodes to.
func (e *Emitter) goType(el schema.Element) string {
	switch el.Kind {
	case schema.KindBit:
		return "uint64"
	case schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64,
		schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindFloat32, schema.KindFloat64:
		return string(el.Kind)
	case schema.KindBitfield:
		return e.bitfieldGoType(el.Bitfield)
	case schema.KindArray:
		return "[]" + e.goType(*el.Array.Items)
	case schema.KindString:
		return "string"
	case schema.KindDiscriminatedUnion:
		return unionGoType
	case schema.KindChoice:
		return choiceGoType
	case schema.KindBackReference:
		return goTypeName(el.BackRef.Target)
	case schema.KindOptional:
		return "*" + e.goType(*el.Optional.Value)
	case schema.KindTypeRef:
		return goTypeName(el.TypeRef.Name)
	default:
		return "any"
	}
}

// unionGoType is the sum-type shape discriminated_union renders to: a
// variant tag plus the decoded payload, since Go has no native tagged
// union and the teacher's own runtime favors a flat struct over an
// interface hierarchy for this shape.
const unionGoType = "Union"

// choiceGoType is the distinct shape choice renders to. A choice has no
// wire-separate discriminator — the tag lives inside the variant's own
// encoding — so it is never structurally interchangeable with Union.
const choiceGoType = "Choice"

func (e *Emitter) bitfieldGoType(b *schema.BitfieldSpec) string {
	var sb strings.Builder
	sb.WriteString("struct {\n")
	for _, f := range b.Fields {
		sb.WriteString(fmt.Sprintf("\t\t%s %s\n", schema.SanitizeFieldName(f.Name), bitfieldSubFieldGoType(f.Size)))
	}
	sb.WriteString("\t}")
	return sb.String()
}

func bitfieldSubFieldGoType(size int) string {
	switch {
	case size <= 8:
		return "uint8"
	case size <= 16:
		return "uint16"
	case size <= 32:
		return "uint32"
	default:
		return "uint64"
	}
}

// emitStructFields writes one struct-body line per field, honoring
// includeComputed so the input shape can omit computed fields while the
// output/decoded shape includes them.
func (e *Emitter) emitStructFields(indent int, fields []schema.Field, includeComputed bool) {
	for _, f := range fields {
		if f.Computed != nil && !includeComputed {
			continue
		}
		e.line(indent, "%s %s", schema.SanitizeFieldName(f.Name), e.goType(f.Element))
	}
}

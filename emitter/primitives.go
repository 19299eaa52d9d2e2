package emitter

import (
	"fmt"

	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitEncodeElement dispatches to the paired emitEncode_X for el's kind.
// valuePath names the Go expression holding the value to encode; indent is
// the current statement indentation; fieldName is used only for error
// messages.
func (e *Emitter) emitEncodeElement(tp *planner.TypePlan, valuePath string, el schema.Element, indent int, fieldName string) error {
	end := endiannessExpr(e.schema.ResolveEndianness(el.Endianness))

	switch el.Kind {
	case schema.KindBit:
		e.line(indent, "if err := w.WriteBits(uint64(%s), %d); err != nil {", valuePath, el.BitSize)
		e.line(indent+1, "return err")
		e.line(indent, "}")
	case schema.KindUint8:
		e.line(indent, "w.WriteUint8(%s)", valuePath)
	case schema.KindInt8:
		e.line(indent, "w.WriteInt8(%s)", valuePath)
	case schema.KindUint16:
		e.line(indent, "w.WriteUint16(%s, %s)", valuePath, end)
	case schema.KindInt16:
		e.line(indent, "w.WriteInt16(%s, %s)", valuePath, end)
	case schema.KindUint32:
		e.line(indent, "w.WriteUint32(%s, %s)", valuePath, end)
	case schema.KindInt32:
		e.line(indent, "w.WriteInt32(%s, %s)", valuePath, end)
	case schema.KindUint64:
		e.line(indent, "w.WriteUint64(%s, %s)", valuePath, end)
	case schema.KindInt64:
		e.line(indent, "w.WriteInt64(%s, %s)", valuePath, end)
	case schema.KindFloat32:
		e.line(indent, "w.WriteFloat32(%s, %s)", valuePath, end)
	case schema.KindFloat64:
		e.line(indent, "w.WriteFloat64(%s, %s)", valuePath, end)
	case schema.KindBitfield:
		e.emitBitfieldEncode(valuePath, el.Bitfield, indent)
	case schema.KindArray:
		return e.emitArrayEncode(tp, valuePath, el.Array, indent, fieldName)
	case schema.KindString:
		return e.emitStringEncode(tp, valuePath, el.Str, indent, fieldName)
	case schema.KindOptional:
		return e.emitOptionalEncode(tp, valuePath, el.Optional, indent, fieldName)
	case schema.KindTypeRef:
		e.emitTypeRefEncode(valuePath, el.TypeRef, indent)
	case schema.KindBackReference:
		return e.emitBackRefFieldEncode(valuePath, el.BackRef, indent)
	case schema.KindDiscriminatedUnion:
		return e.emitUnionEncode(tp, valuePath, el.Union, indent, fieldName)
	case schema.KindChoice:
		return e.emitChoiceEncode(tp, valuePath, el.Choice, indent, fieldName)
	default:
		return fmt.Errorf("field %q: unhandled kind %q", fieldName, el.Kind)
	}
	return nil
}

func (e *Emitter) emitDecodeElement(tp *planner.TypePlan, valuePath string, el schema.Element, indent int, fieldName string) error {
	end := endiannessExpr(e.schema.ResolveEndianness(el.Endianness))
	errVar := e.fresh("err")

	switch el.Kind {
	case schema.KindBit:
		e.line(indent, "%s, %s := r.ReadBits(%d)", scratchName(valuePath), errVar, el.BitSize)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s = uint64(%s)", valuePath, scratchName(valuePath))
	case schema.KindUint8:
		v := e.fresh("v")
		e.line(indent, "%s, %s := r.ReadUint8()", v, errVar)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s = %s", valuePath, v)
	case schema.KindInt8:
		v := e.fresh("v")
		e.line(indent, "%s, %s := r.ReadInt8()", v, errVar)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s = %s", valuePath, v)
	case schema.KindUint16, schema.KindInt16, schema.KindUint32, schema.KindInt32,
		schema.KindUint64, schema.KindInt64, schema.KindFloat32, schema.KindFloat64:
		v := e.fresh("v")
		e.line(indent, "%s, %s := r.Read%s(%s)", v, errVar, decodeMethodSuffix(el.Kind), end)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s = %s", valuePath, v)
	case schema.KindBitfield:
		e.emitBitfieldDecode(valuePath, el.Bitfield, indent)
	case schema.KindArray:
		return e.emitArrayDecode(tp, valuePath, el.Array, indent, fieldName)
	case schema.KindString:
		return e.emitStringDecode(tp, valuePath, el.Str, indent, fieldName)
	case schema.KindOptional:
		return e.emitOptionalDecode(tp, valuePath, el.Optional, indent, fieldName)
	case schema.KindTypeRef:
		e.emitTypeRefDecode(valuePath, el.TypeRef, indent)
	case schema.KindBackReference:
		return e.emitBackRefFieldDecode(valuePath, el.BackRef, indent)
	case schema.KindDiscriminatedUnion:
		return e.emitUnionDecode(tp, valuePath, el.Union, indent, fieldName)
	case schema.KindChoice:
		return e.emitChoiceDecode(tp, valuePath, el.Choice, indent, fieldName)
	default:
		return fmt.Errorf("field %q: unhandled kind %q", fieldName, el.Kind)
	}
	return nil
}

func decodeMethodSuffix(k schema.Kind) string {
	switch k {
	case schema.KindUint16:
		return "Uint16"
	case schema.KindInt16:
		return "Int16"
	case schema.KindUint32:
		return "Uint32"
	case schema.KindInt32:
		return "Int32"
	case schema.KindUint64:
		return "Uint64"
	case schema.KindInt64:
		return "Int64"
	case schema.KindFloat32:
		return "Float32"
	case schema.KindFloat64:
		return "Float64"
	default:
		return ""
	}
}

func (e *Emitter) emitErrCheck(indent int, errVar string) {
	e.line(indent, "if %s != nil {", errVar)
	e.line(indent+1, "return out, %s", errVar)
	e.line(indent, "}")
}

// scratchName derives a short deterministic local name from a dotted value
// path, used when a raw-bits read needs an intermediate before the
// target's narrower type conversion.
func scratchName(valuePath string) string {
	return "bits_" + sanitizePathForIdent(valuePath)
}

func sanitizePathForIdent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '.' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func (e *Emitter) emitTypeRefEncode(valuePath string, ref *schema.TypeRefSpec, indent int) {
	e.line(indent, "if err := Encode%s(w, %s); err != nil {", goTypeName(ref.Name), valuePath)
	e.line(indent+1, "return err")
	e.line(indent, "}")
}

func (e *Emitter) emitTypeRefDecode(valuePath string, ref *schema.TypeRefSpec, indent int) {
	errVar := e.fresh("err")
	e.line(indent, "%s, %s := Decode%s(r)", valuePath, errVar, goTypeName(ref.Name))
	e.emitErrCheck(indent, errVar)
}

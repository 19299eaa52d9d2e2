package emitter

import (
	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitOptionalEncode writes the presence flag (a single bit or a whole
// byte, per PresenceKind) followed by the wrapped value, only when
// valuePath is non-nil — optional() renders to a Go pointer so absence is
// simply nil rather than a sentinel value (spec.md §3).
func (e *Emitter) emitOptionalEncode(tp *planner.TypePlan, valuePath string, spec *schema.OptionalSpec, indent int, fieldName string) error {
	e.line(indent, "if %s != nil {", valuePath)
	e.emitPresenceFlagWrite(spec.PresenceType, true, indent+1)
	inner := "(*" + valuePath + ")"
	if err := e.emitEncodeElement(tp, inner, *spec.Value, indent+1, fieldName); err != nil {
		return err
	}
	e.line(indent, "} else {")
	e.emitPresenceFlagWrite(spec.PresenceType, false, indent+1)
	e.line(indent, "}")
	return nil
}

func (e *Emitter) emitPresenceFlagWrite(kind schema.PresenceKind, present bool, indent int) {
	v := 0
	if present {
		v = 1
	}
	if kind == schema.PresenceBit {
		e.line(indent, "if err := w.WriteBits(%d, 1); err != nil {", v)
		e.line(indent+1, "return err")
		e.line(indent, "}")
		return
	}
	e.line(indent, "w.WriteUint8(%d)", v)
}

// emitOptionalDecode reads the presence flag and, when set, decodes the
// wrapped value into a fresh local and points valuePath at it.
func (e *Emitter) emitOptionalDecode(tp *planner.TypePlan, valuePath string, spec *schema.OptionalSpec, indent int, fieldName string) error {
	present := e.fresh("present")
	errVar := e.fresh("err")
	if spec.PresenceType == schema.PresenceBit {
		raw := e.fresh("presentBit")
		e.line(indent, "%s, %s := r.ReadBits(1)", raw, errVar)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s := %s != 0", present, raw)
	} else {
		raw := e.fresh("presentByte")
		e.line(indent, "%s, %s := r.ReadUint8()", raw, errVar)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s := %s != 0", present, raw)
	}

	e.line(indent, "if %s {", present)
	innerType := e.goType(*spec.Value)
	local := e.fresh("optVal")
	e.line(indent+1, "var %s %s", local, innerType)
	if err := e.emitDecodeElement(tp, local, *spec.Value, indent+1, fieldName); err != nil {
		return err
	}
	e.line(indent+1, "%s = &%s", valuePath, local)
	e.line(indent, "} else {")
	e.line(indent+1, "%s = nil", valuePath)
	e.line(indent, "}")
	return nil
}

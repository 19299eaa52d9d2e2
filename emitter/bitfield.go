package emitter

import "github.com/binarywire/bwcodec/schema"

// emitBitfieldEncode writes one WriteBits call per named sub-field, in
// declared order. This must stay a sequence of per-field writes rather
// than one combined packed-integer write: under LSBFirst bit order the
// two approaches produce different bytes on the wire, and only the
// per-field sequence matches writeBits(sub, sub.size) issued in
// declaration order.
func (e *Emitter) emitBitfieldEncode(valuePath string, spec *schema.BitfieldSpec, indent int) {
	for _, f := range spec.Fields {
		e.line(indent, "if err := w.WriteBits(uint64(%s.%s)&%#x, %d); err != nil {", valuePath, schema.SanitizeFieldName(f.Name), mask(f.Size), f.Size)
		e.line(indent+1, "return err")
		e.line(indent, "}")
	}
}

func (e *Emitter) emitBitfieldDecode(valuePath string, spec *schema.BitfieldSpec, indent int) {
	for _, f := range spec.Fields {
		raw := e.fresh("bits")
		errVar := e.fresh("err")
		e.line(indent, "%s, %s := r.ReadBits(%d)", raw, errVar, f.Size)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s.%s = %s(%s)", valuePath, schema.SanitizeFieldName(f.Name), bitfieldSubFieldGoType(f.Size), raw)
	}
}

func mask(size int) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(size)) - 1
}

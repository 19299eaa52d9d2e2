package emitter

import "github.com/binarywire/bwcodec/schema"

// backRefStorageBytes is the wire width of a back_reference's pointer
// word — spec.md §4.4 restricts StorageWidth to uint8/16/32.
func backRefStorageBytes(width schema.Kind) int {
	switch width {
	case schema.KindUint8:
		return 1
	case schema.KindUint16:
		return 2
	default:
		return 4
	}
}

// backRefDiscriminatorBits is the fixed top-bit pattern (spec.md §4.4/§6:
// "the top bit(s) of the discriminator ... are always set on a pointer")
// that marks a storage word as a pointer rather than the start of the
// target type's own encoding.
func backRefDiscriminatorBits(width schema.Kind) uint64 {
	switch width {
	case schema.KindUint8:
		return 0xC0
	case schema.KindUint16:
		return 0xC000
	default:
		return 0xC0000000
	}
}

// emitBackRefFieldEncode implements spec.md §4.4's dedup rule: hash the
// target value's own encoding, and if a structurally identical value was
// already written earlier in the stream, emit a tagged pointer word back
// to it; otherwise record this position in the dictionary and emit the
// target type normally, in full, right here — back_reference fields are
// NOT always pointer-sized on the wire; only repeats are.
func (e *Emitter) emitBackRefFieldEncode(valuePath string, spec *schema.BackRefSpec, indent int) error {
	probe := e.fresh("probe")
	key := e.fresh("key")
	off := e.fresh("off")
	hit := e.fresh("hit")
	e.line(indent, "%s := bitstream.NewEncoder(%s)", probe, bitOrderExpr(e.schema.DefaultBitOrder))
	e.line(indent, "if err := Encode%s(%s, %s); err != nil {", goTypeName(spec.Target), probe, valuePath)
	e.line(indent+1, "return err")
	e.line(indent, "}")
	e.line(indent, "%s := bitstream.StructuralKey(%s.Finish())", key, probe)
	e.line(indent, "%s, %s := w.DictLookup(%s)", off, hit, key)
	e.line(indent, "if %s {", hit)
	e.writeBackRefPointer(spec, off, indent+1)
	e.line(indent, "} else {")
	e.line(indent+1, "w.DictRecord(%s)", key)
	e.line(indent+1, "if err := Encode%s(w, %s); err != nil {", goTypeName(spec.Target), valuePath)
	e.line(indent+2, "return err")
	e.line(indent+1, "}")
	e.line(indent, "}")
	return nil
}

// writeBackRefPointer writes a tagged pointer word: the discriminator
// bits for spec.StorageWidth OR'd with the (possibly current-position-
// relative) masked offset.
func (e *Emitter) writeBackRefPointer(spec *schema.BackRefSpec, offVar string, indent int) {
	end := endiannessExpr(e.schema.ResolveEndianness(spec.Endianness))
	width := backRefStorageBytes(spec.StorageWidth)

	ptrOffset := "uint64(" + offVar + ")"
	if spec.OffsetBase == schema.OffsetCurrentPosition {
		rel := e.fresh("rel")
		e.line(indent, "%s := uint64(%s) - (uint64(w.ByteOffset()) + %d)", rel, offVar, width)
		ptrOffset = rel
	}

	masked := e.fresh("masked")
	e.line(indent, "%s := (%s & %#x) | %#x", masked, ptrOffset, spec.OffsetMask, backRefDiscriminatorBits(spec.StorageWidth))
	switch spec.StorageWidth {
	case schema.KindUint8:
		e.line(indent, "w.WriteUint8(uint8(%s))", masked)
	case schema.KindUint16:
		e.line(indent, "w.WriteUint16(uint16(%s), %s)", masked, end)
	default:
		e.line(indent, "w.WriteUint32(uint32(%s), %s)", masked, end)
	}
}

func (e *Emitter) emitBackRefPeek(width schema.Kind, end string, indent int) (string, string) {
	peeked := e.fresh("peek")
	errVar := e.fresh("err")
	switch width {
	case schema.KindUint8:
		e.line(indent, "%s, %s := r.PeekUint8()", peeked, errVar)
	case schema.KindUint16:
		e.line(indent, "%s, %s := r.PeekUint16(%s)", peeked, errVar, end)
	default:
		e.line(indent, "%s, %s := r.PeekUint32(%s)", peeked, errVar, end)
	}
	return peeked, errVar
}

// emitBackRefFieldDecode peeks the storage word's discriminator bits to
// tell a pointer from the target type's own direct encoding (spec.md
// §4.4): only a match reads and follows a pointer; otherwise the target
// is decoded in place, consuming no pointer-shaped prefix at all.
func (e *Emitter) emitBackRefFieldDecode(valuePath string, spec *schema.BackRefSpec, indent int) error {
	end := endiannessExpr(e.schema.ResolveEndianness(spec.Endianness))
	bits := backRefDiscriminatorBits(spec.StorageWidth)

	peeked, peekErr := e.emitBackRefPeek(spec.StorageWidth, end, indent)
	e.emitErrCheck(indent, peekErr)

	e.line(indent, "if uint64(%s)&%#x == %#x {", peeked, bits, bits)

	raw := e.fresh("ptr")
	rErr := e.fresh("err")
	switch spec.StorageWidth {
	case schema.KindUint8:
		e.line(indent+1, "%s, %s := r.ReadUint8()", raw, rErr)
	case schema.KindUint16:
		e.line(indent+1, "%s, %s := r.ReadUint16(%s)", raw, rErr, end)
	default:
		e.line(indent+1, "%s, %s := r.ReadUint32(%s)", raw, rErr, end)
	}
	e.emitErrCheck(indent+1, rErr)

	masked := e.fresh("masked")
	e.line(indent+1, "%s := uint64(%s) & %#x", masked, raw, spec.OffsetMask)

	abs := e.fresh("absOff")
	if spec.OffsetBase == schema.OffsetCurrentPosition {
		e.line(indent+1, "%s := uint64(r.ByteOffset()) + %s", abs, masked)
	} else {
		e.line(indent+1, "%s := %s", abs, masked)
	}

	e.line(indent+1, "if err := r.BeginBackRef(uint32(%s)); err != nil {", abs)
	e.line(indent+2, "return out, err")
	e.line(indent+1, "}")
	e.line(indent+1, "if err := r.PushPosition(); err != nil {")
	e.line(indent+2, "return out, err")
	e.line(indent+1, "}")
	e.line(indent+1, "if err := r.Seek(uint32(%s)); err != nil {", abs)
	e.line(indent+2, "return out, err")
	e.line(indent+1, "}")

	target := e.fresh("target")
	targetErr := e.fresh("err")
	e.line(indent+1, "%s, %s := Decode%s(r)", target, targetErr, goTypeName(spec.Target))
	e.line(indent+1, "r.EndBackRef(uint32(%s))", abs)
	e.line(indent+1, "if err := r.PopPosition(); err != nil {")
	e.line(indent+2, "return out, err")
	e.line(indent+1, "}")
	e.emitErrCheck(indent+1, targetErr)
	e.line(indent+1, "%s = %s", valuePath, target)

	e.line(indent, "} else {")

	direct := e.fresh("direct")
	directErr := e.fresh("err")
	e.line(indent+1, "%s, %s := Decode%s(r)", direct, directErr, goTypeName(spec.Target))
	e.emitErrCheck(indent+1, directErr)
	e.line(indent+1, "%s = %s", valuePath, direct)

	e.line(indent, "}")
	return nil
}

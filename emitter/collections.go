package emitter

import (
	"fmt"

	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitArrayEncode covers every ArrayKind (spec.md §3): fixed and
// length-prefixed collections write a prefix (or nothing) then each item
// in turn; field_referenced and null/signature/EOF-terminated strategies
// omit or replace the prefix with a sentinel check. Typed position tables
// (same_index/corresponding/first<T>/last<T>) are threaded through the
// loop whenever this array field is one the plan reserved a table for.
func (e *Emitter) emitArrayEncode(tp *planner.TypePlan, valuePath string, spec *schema.ArraySpec, indent int, fieldName string) error {
	switch spec.ArrayKind {
	case schema.ArrayFixed:
		// length is implied by schema, nothing to write
	case schema.ArrayLengthPrefixed, schema.ArrayLengthPrefixedItem:
		e.emitLengthPrefixWrite(valuePath, spec.LengthType, indent)
	case schema.ArrayFieldReferenced:
		// sibling field already carries the count; nothing to write here
	case schema.ArrayNullTerminated, schema.ArraySignatureTerm, schema.ArrayEOFTerminated:
		// terminator/sentinel handled per-item or omitted (EOF)
	default:
		return fmt.Errorf("field %q: unhandled array kind %q", fieldName, spec.ArrayKind)
	}

	tableKey := e.arrayTableKey(tp, fieldName)
	if tableKey != "" {
		e.line(indent, "w.EnterArrayIteration(%q)", tableKey)
	}

	idx := e.fresh("i")
	item := e.fresh("item")
	e.line(indent, "for %s, %s := range %s {", idx, item, valuePath)
	_ = idx

	if tableKey != "" {
		e.line(indent+1, "w.RecordTypedArrayPosition(%q)", tableKey)
	}

	itemIndent := indent + 1
	itemBytes := ""
	if spec.ArrayKind == schema.ArrayLengthPrefixedItem {
		itemBytes = e.fresh("itemBytes")
		e.line(itemIndent, "var %s []byte", itemBytes)
		e.line(itemIndent, "{")
		// "w" is re-declared here, shadowing the enclosing Encode
		// function's parameter for the rest of this block only, so the
		// per-item payload can be measured before its length prefix is
		// written with the real outer w below.
		e.line(itemIndent+1, "w := bitstream.NewEncoder(%s)", bitOrderExpr(e.schema.DefaultBitOrder))
		itemIndent++
	}

	if err := e.emitEncodeElement(tp, item, *spec.Items, itemIndent, fieldName); err != nil {
		return err
	}

	if spec.ArrayKind == schema.ArrayLengthPrefixedItem {
		e.line(itemIndent, "%s = w.Finish()", itemBytes)
		itemIndent--
		e.line(itemIndent, "}")
		end := endiannessExpr(e.schema.DefaultEndianness)
		e.line(itemIndent, "w.Write%s(%s(len(%s)), %s)", titleCase(string(spec.ItemLengthType)), spec.ItemLengthType, itemBytes, end)
		b := e.fresh("b")
		e.line(itemIndent, "for _, %s := range %s {", b, itemBytes)
		e.line(itemIndent+1, "w.WriteUint8(%s)", b)
		e.line(itemIndent, "}")
	}

	if tableKey != "" {
		e.line(indent+1, "w.AdvanceArrayIteration(%q)", tableKey)
	}

	e.line(indent, "}")

	if tableKey != "" {
		e.line(indent, "w.ExitArrayIteration(%q)", tableKey)
	}

	switch spec.ArrayKind {
	case schema.ArrayNullTerminated:
		e.line(indent, "w.WriteUint8(0)")
	case schema.ArraySignatureTerm:
		e.emitTerminatorWrite(spec, indent)
	}

	return nil
}

func (e *Emitter) arrayTableKey(tp *planner.TypePlan, fieldName string) string {
	for _, k := range tp.PositionTables {
		if k.ArrayField == fieldName {
			return k.Name()
		}
	}
	return ""
}

func (e *Emitter) emitLengthPrefixWrite(valuePath string, lengthType schema.Kind, indent int) {
	end := endiannessExpr(e.schema.DefaultEndianness)
	switch lengthType {
	case schema.KindUint8:
		e.line(indent, "w.WriteUint8(uint8(len(%s)))", valuePath)
	default:
		e.line(indent, "w.Write%s(%s(len(%s)), %s)", titleCase(string(lengthType)), lengthType, valuePath, end)
	}
}

func (e *Emitter) emitTerminatorWrite(spec *schema.ArraySpec, indent int) {
	end := endiannessExpr(e.schema.ResolveEndianness(spec.TerminatorEndianness))
	switch spec.TerminatorType {
	case schema.KindUint8:
		e.line(indent, "w.WriteUint8(uint8(%d))", spec.TerminatorValue)
	default:
		e.line(indent, "w.Write%s(%s(%d), %s)", titleCase(string(spec.TerminatorType)), spec.TerminatorType, spec.TerminatorValue, end)
	}
}

func (e *Emitter) emitArrayDecode(tp *planner.TypePlan, valuePath string, spec *schema.ArraySpec, indent int, fieldName string) error {
	itemType := e.goType(*spec.Items)
	e.line(indent, "%s = nil", valuePath)

	switch spec.ArrayKind {
	case schema.ArrayFixed:
		return e.emitBoundedLoopDecode(tp, valuePath, spec, indent, fieldName, fmt.Sprintf("%d", spec.Length))

	case schema.ArrayLengthPrefixed, schema.ArrayLengthPrefixedItem:
		n := e.fresh("n")
		errVar := e.fresh("err")
		end := endiannessExpr(e.schema.DefaultEndianness)
		e.line(indent, "%s0, %s := r.Read%s(%s)", n, errVar, titleCase(string(spec.LengthType)), end)
		e.emitErrCheck(indent, errVar)
		e.line(indent, "%s := int(%s0)", n, n)
		return e.emitBoundedLoopDecode(tp, valuePath, spec, indent, fieldName, n)

	case schema.ArrayFieldReferenced:
		return e.emitBoundedLoopDecode(tp, valuePath, spec, indent, fieldName, "int(out."+schema.SanitizeFieldName(spec.LengthField)+")")

	case schema.ArrayNullTerminated:
		return e.emitNullTerminatedDecode(tp, valuePath, spec, indent, fieldName, itemType)

	case schema.ArraySignatureTerm:
		return e.emitSignatureTerminatedDecode(tp, valuePath, spec, indent, fieldName, itemType)

	case schema.ArrayEOFTerminated:
		return e.emitEOFTerminatedDecode(tp, valuePath, spec, indent, fieldName, itemType)

	default:
		return fmt.Errorf("field %q: unhandled array kind %q", fieldName, spec.ArrayKind)
	}
}

// emitBoundedLoopDecode decodes countExpr items into valuePath. For a
// length_prefixed_items array the loop also reads each item's length
// prefix, which it does not otherwise need (items are self-delimiting by
// kind), so it simply discards the prefix after reading it.
func (e *Emitter) emitBoundedLoopDecode(tp *planner.TypePlan, valuePath string, spec *schema.ArraySpec, indent int, fieldName, countExpr string) error {
	idx := e.fresh("i")
	item := e.fresh("item")
	itemType := e.goType(*spec.Items)

	e.line(indent, "for %s := 0; %s < %s; %s++ {", idx, idx, countExpr, idx)
	if spec.ArrayKind == schema.ArrayLengthPrefixedItem {
		discard := e.fresh("_itemLen")
		errVar := e.fresh("err")
		end := endiannessExpr(e.schema.DefaultEndianness)
		e.line(indent+1, "%s, %s := r.Read%s(%s)", discard, errVar, titleCase(string(spec.ItemLengthType)), end)
		e.emitErrCheck(indent+1, errVar)
		e.line(indent+1, "_ = %s", discard)
	}
	e.line(indent+1, "var %s %s", item, itemType)
	if err := e.emitDecodeElement(tp, item, *spec.Items, indent+1, fieldName); err != nil {
		return err
	}
	e.line(indent+1, "%s = append(%s, %s)", valuePath, valuePath, item)
	e.line(indent, "}")
	return nil
}

// emitNullTerminatedDecode stops at a 0x00 sentinel byte peeked ahead of
// each item. TerminalVariants is only checked by the planner
// (planner.validateArray: the names must be declared variants of the item
// union); it changes neither side of the wire format: emitArrayEncode
// always writes the trailing zero, and decoding a terminal variant does
// not end this loop.
func (e *Emitter) emitNullTerminatedDecode(tp *planner.TypePlan, valuePath string, spec *schema.ArraySpec, indent int, fieldName, itemType string) error {
	e.line(indent, "for {")
	peekVar := e.fresh("peek")
	errVar := e.fresh("err")
	e.line(indent+1, "%s, %s := r.PeekUint8()", peekVar, errVar)
	e.emitErrCheck(indent+1, errVar)
	e.line(indent+1, "if %s == 0 {", peekVar)
	e.line(indent+2, "r.ReadUint8()")
	e.line(indent+2, "break")
	e.line(indent+1, "}")
	item := e.fresh("item")
	e.line(indent+1, "var %s %s", item, itemType)
	if err := e.emitDecodeElement(tp, item, *spec.Items, indent+1, fieldName); err != nil {
		return err
	}
	e.line(indent+1, "%s = append(%s, %s)", valuePath, valuePath, item)
	e.line(indent, "}")
	return nil
}

func (e *Emitter) emitSignatureTerminatedDecode(tp *planner.TypePlan, valuePath string, spec *schema.ArraySpec, indent int, fieldName, itemType string) error {
	end := endiannessExpr(e.schema.ResolveEndianness(spec.TerminatorEndianness))
	width := spec.TerminatorType.FixedWidth()
	e.line(indent, "for {")
	if width == 1 {
		peekVar := e.fresh("peek")
		errVar := e.fresh("err")
		e.line(indent+1, "%s, %s := r.PeekUint8()", peekVar, errVar)
		e.emitErrCheck(indent+1, errVar)
		e.line(indent+1, "if uint64(%s) == %d {", peekVar, spec.TerminatorValue)
	} else {
		peekVar := e.fresh("peek")
		errVar := e.fresh("err")
		e.line(indent+1, "%s, %s := r.PeekUint%d(%s)", peekVar, errVar, width*8, end)
		e.emitErrCheck(indent+1, errVar)
		e.line(indent+1, "if uint64(%s) == %d {", peekVar, spec.TerminatorValue)
	}
	e.line(indent+2, "r.ReadBits(%d)", width*8)
	e.line(indent+2, "break")
	e.line(indent+1, "}")
	item := e.fresh("item")
	e.line(indent+1, "var %s %s", item, itemType)
	if err := e.emitDecodeElement(tp, item, *spec.Items, indent+1, fieldName); err != nil {
		return err
	}
	e.line(indent+1, "%s = append(%s, %s)", valuePath, valuePath, item)
	e.line(indent, "}")
	return nil
}

// emitEOFTerminatedDecode decodes items until the buffer runs out. Running
// out of bytes mid-item is the expected terminator, not a failure (spec.md
// §7 item 3), so each item decodes inside its own closure: a bare
// bitstream.ErrOutOfBounds from that closure ends the loop, while every
// other decode error still propagates fatally.
func (e *Emitter) emitEOFTerminatedDecode(tp *planner.TypePlan, valuePath string, spec *schema.ArraySpec, indent int, fieldName, itemType string) error {
	item := e.fresh("item")
	itemErr := e.fresh("err")
	e.line(indent, "for r.HasMore() {")
	e.line(indent+1, "%s, %s := func() (%s, error) {", item, itemErr, itemType)
	e.line(indent+2, "var out %s", itemType)
	if err := e.emitDecodeElement(tp, "out", *spec.Items, indent+2, fieldName); err != nil {
		return err
	}
	e.line(indent+2, "return out, nil")
	e.line(indent+1, "}()")
	e.line(indent+1, "if %s != nil {", itemErr)
	e.line(indent+2, "if errors.Is(%s, bitstream.ErrOutOfBounds) {", itemErr)
	e.line(indent+3, "break")
	e.line(indent+2, "}")
	e.line(indent+2, "return out, %s", itemErr)
	e.line(indent+1, "}")
	e.line(indent+1, "%s = append(%s, %s)", valuePath, valuePath, item)
	e.line(indent, "}")
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-32) + s[1:]
}

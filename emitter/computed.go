package emitter

import (
	"fmt"
	"strings"

	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitComputedEncode writes the derived value for one of the closed set of
// computed-field kinds (spec.md §4.3/§4.4). The input shape emitted for a
// composite with computed fields (<Name>Input) has no field for them, so a
// caller cannot supply one and encode always derives the value fresh from
// sibling state.
func (e *Emitter) emitComputedEncode(tp *planner.TypePlan, f schema.Field) error {
	switch f.Computed.Kind {
	case schema.ComputedLengthOf:
		return e.emitLengthOfEncode(tp, f)
	case schema.ComputedCRC32Of:
		return e.emitCRC32OfEncode(tp, f)
	case schema.ComputedPositionOf:
		return e.emitPositionOfEncode(tp, f)
	case schema.ComputedSumOfSizes:
		return e.emitSumOfSizesEncode(tp, f)
	case schema.ComputedSumOfTypeSizes:
		return e.emitSumOfTypeSizesEncode(tp, f)
	default:
		return fmt.Errorf("field %q: unhandled computed kind %q", f.Name, f.Computed.Kind)
	}
}

// findField locates a sibling field by name within the composite's own
// sequence — the only path shape length_of/crc32_of/sum_of_sizes actually
// need; relative/root-anchored paths only arise for position_of's first/
// last/corresponding selectors, handled separately below.
func findField(tp *planner.TypePlan, name string) (schema.Field, int, bool) {
	for i, f := range tp.Def.Composite.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return schema.Field{}, -1, false
}

func (e *Emitter) writeComputedValue(wireKind schema.Kind, expr string, indent int) {
	switch wireKind {
	case schema.KindUint8:
		e.line(indent, "w.WriteUint8(uint8(%s))", expr)
	default:
		end := endiannessExpr(e.schema.DefaultEndianness)
		e.line(indent, "w.Write%s(%s(%s), %s)", titleCase(string(wireKind)), wireKind, expr, end)
	}
}

func (e *Emitter) emitLengthOfEncode(tp *planner.TypePlan, f schema.Field) error {
	target := schema.SanitizeFieldName(f.Computed.Target)
	e.writeComputedValue(f.Element.Kind, "len(v."+target+")", 1)
	return nil
}

// emitCRC32OfEncode measures the target field's own wire encoding in a
// scratch sub-encoder (the same lexical-shadowing trick emitArrayEncode
// uses for length_prefixed_items) and writes the IEEE CRC-32 of the
// resulting bytes.
func (e *Emitter) emitCRC32OfEncode(tp *planner.TypePlan, f schema.Field) error {
	targetField, _, ok := findField(tp, f.Computed.Target)
	if !ok {
		return fmt.Errorf("field %q: crc32_of target %q not found", f.Name, f.Computed.Target)
	}
	scratch, err := e.emitScratchEncode(tp, "v."+schema.SanitizeFieldName(targetField.Name), targetField.Element, 1, f.Name)
	if err != nil {
		return err
	}
	e.writeComputedValue(f.Element.Kind, "crc32.ChecksumIEEE("+scratch+")", 1)
	return nil
}

// emitScratchEncode emits a block that encodes valuePath into a fresh
// sub-encoder (shadowing "w" for the block's duration) and returns the
// name of a []byte local holding the result.
func (e *Emitter) emitScratchEncode(tp *planner.TypePlan, valuePath string, el schema.Element, indent int, fieldName string) (string, error) {
	bytesVar := e.fresh("measured")
	e.line(indent, "var %s []byte", bytesVar)
	e.line(indent, "{")
	e.line(indent+1, "w := bitstream.NewEncoder(%s)", bitOrderExpr(e.schema.DefaultBitOrder))
	if err := e.emitEncodeElement(tp, valuePath, el, indent+1, fieldName); err != nil {
		return "", err
	}
	e.line(indent+1, "%s = w.Finish()", bytesVar)
	e.line(indent, "}")
	return bytesVar, nil
}

func (e *Emitter) emitSumOfSizesEncode(tp *planner.TypePlan, f schema.Field) error {
	total := e.fresh("total")
	e.line(1, "%s := 0", total)
	for _, targetName := range f.Computed.Targets {
		targetField, _, ok := findField(tp, targetName)
		if !ok {
			return fmt.Errorf("field %q: sum_of_sizes target %q not found", f.Name, targetName)
		}
		scratch, err := e.emitScratchEncode(tp, "v."+schema.SanitizeFieldName(targetField.Name), targetField.Element, 1, f.Name)
		if err != nil {
			return err
		}
		e.line(1, "%s += len(%s)", total, scratch)
	}
	e.writeComputedValue(f.Element.Kind, total, 1)
	return nil
}

// emitSumOfTypeSizesEncode sums the encoded size of every item in the
// named array field whose held variant's tag matches ElementType — items
// of other variants are skipped, matching "measure by invoking the
// appropriate encoders against the values and accumulating the lengths"
// applied selectively by type.
func (e *Emitter) emitSumOfTypeSizesEncode(tp *planner.TypePlan, f schema.Field) error {
	arrayField, _, ok := findField(tp, f.Computed.Target)
	if !ok {
		return fmt.Errorf("field %q: sum_of_type_sizes target %q not found", f.Name, f.Computed.Target)
	}
	total := e.fresh("total")
	item := e.fresh("item")
	e.line(1, "%s := 0", total)
	e.line(1, "for _, %s := range v.%s {", item, schema.SanitizeFieldName(arrayField.Name))
	e.line(2, "if %s.Tag != %q {", item, f.Computed.ElementType)
	e.line(3, "continue")
	e.line(2, "}")
	scratch, err := e.emitScratchEncode(tp, item+".Value.("+goTypeName(f.Computed.ElementType)+")", schema.Element{Kind: schema.KindTypeRef, TypeRef: &schema.TypeRefSpec{Name: f.Computed.ElementType}}, 2, f.Name)
	if err != nil {
		return err
	}
	e.line(2, "%s += len(%s)", total, scratch)
	e.line(1, "}")
	e.writeComputedValue(f.Element.Kind, total, 1)
	return nil
}

// emitPositionOfEncode resolves the byte offset target will start at.
// Bare sibling names are measured from the current byte offset plus this
// field's own fixed width, plus the length of every field between this one
// (exclusive) and target (exclusive): computed fields in between add their
// fixed width, the others are pre-encoded into a scratch encoder and
// measured. Indexed selectors read the typed
// position tables the planner reserved (planner.reservePositionTables).
func (e *Emitter) emitPositionOfEncode(tp *planner.TypePlan, f schema.Field) error {
	path := schema.ParsePath(f.Computed.Target)

	if path.IsIndexed() {
		key := path.TableKey()
		switch path.Selector {
		case schema.SelectorFirst:
			e.writeComputedValue(f.Element.Kind, fmt.Sprintf("w.TypedArrayFirst(%q)", key), 1)
		case schema.SelectorLast:
			e.writeComputedValue(f.Element.Kind, fmt.Sprintf("w.TypedArrayLast(%q)", key), 1)
		case schema.SelectorCorresponding:
			idx := e.fresh("idx")
			errVar := e.fresh("err")
			e.line(1, "%s, %s := w.CurrentArrayIterationIndex(%q)", idx, errVar, key)
			e.line(1, "if %s != nil {", errVar)
			e.line(2, "return %s", errVar)
			e.line(1, "}")
			off := e.fresh("off")
			e.line(1, "%s, _ := w.TypedArrayAt(%q, %s)", off, key, idx)
			e.writeComputedValue(f.Element.Kind, off, 1)
		}
		return nil
	}

	targetName := strings.Join(path.Segments, ".")
	_, targetIdx, ok := findField(tp, targetName)
	if !ok {
		return fmt.Errorf("field %q: position_of target %q not found", f.Name, f.Computed.Target)
	}
	_, selfIdx, _ := findField(tp, f.Name)

	base := e.fresh("base")
	e.line(1, "%s := uint64(w.ByteOffset()) + %d", base, f.Element.Kind.FixedWidth())
	fields := tp.Def.Composite.Fields
	for i := selfIdx + 1; i < targetIdx; i++ {
		between := fields[i]
		if between.Computed != nil {
			e.line(1, "%s += %d", base, between.Element.Kind.FixedWidth())
			continue
		}
		scratch, err := e.emitScratchEncode(tp, "v."+schema.SanitizeFieldName(between.Name), between.Element, 1, f.Name)
		if err != nil {
			return err
		}
		e.line(1, "%s += uint64(len(%s))", base, scratch)
	}
	e.writeComputedValue(f.Element.Kind, base, 1)
	return nil
}

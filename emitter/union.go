package emitter

import (
	"fmt"

	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitUnionEncode writes the payload for whichever variant is actually
// held — Go has no closed sum type, so the shared Union{Tag, Value} shape
// (see unionGoType) carries the already-resolved Tag, and encode simply
// switches on it.
func (e *Emitter) emitUnionEncode(tp *planner.TypePlan, valuePath string, spec *schema.UnionSpec, indent int, fieldName string) error {
	e.line(indent, "switch %s.Tag {", valuePath)
	for _, v := range spec.Variants {
		if v.Target == "" {
			continue
		}
		e.line(indent, "case %q:", v.Target)
		e.line(indent+1, "if err := Encode%s(w, %s.Value.(%s)); err != nil {", goTypeName(v.Target), valuePath, goTypeName(v.Target))
		e.line(indent+2, "return err")
		e.line(indent+1, "}")
	}
	e.line(indent, "default:")
	e.line(indent+1, "return fmt.Errorf(%q, %s.Tag)", "encode "+fieldName+": unknown variant tag %q", valuePath)
	e.line(indent, "}")
	return nil
}

// emitUnionDecode implements both peek-based and field-based
// discriminated_union decode (spec.md §4.3/§6): peek-based reads the tag
// off the wire itself; field-based dispatches on an already-decoded
// sibling local (named by DiscriminatorField, rewritten to the identifier
// "value" inside each variant's predicate).
func (e *Emitter) emitUnionDecode(tp *planner.TypePlan, valuePath string, spec *schema.UnionSpec, indent int, fieldName string) error {
	var peeked, base string
	if spec.DiscriminatorField == "" {
		peeked = e.fresh("tag")
		errVar := e.fresh("err")
		width := spec.PeekKind.FixedWidth()
		end := endiannessExpr(e.schema.ResolveEndianness(spec.Endianness))
		switch width {
		case 1:
			e.line(indent, "%s, %s := r.PeekUint8()", peeked, errVar)
		case 2:
			e.line(indent, "%s, %s := r.PeekUint16(%s)", peeked, errVar, end)
		default:
			return fmt.Errorf("field %q: peek-based discriminated_union only supports uint8/uint16 discriminators", fieldName)
		}
		e.emitErrCheck(indent, errVar)
	} else {
		peeked = "out." + schema.SanitizeFieldName(spec.DiscriminatorField)
		base = "out"
	}

	open := false
	for _, v := range spec.Variants {
		if v.When == "" {
			if open {
				e.line(indent, "} else {")
			} else {
				e.line(indent, "{")
			}
		} else {
			cond, err := e.renderCondition(v.When, base, peeked)
			if err != nil {
				return err
			}
			if open {
				e.line(indent, "} else if %s {", cond)
			} else {
				e.line(indent, "if %s {", cond)
			}
		}
		open = true

		decoded := e.fresh("variant")
		errVar := e.fresh("err")
		e.line(indent+1, "%s, %s := Decode%s(r)", decoded, errVar, goTypeName(v.Target))
		e.emitErrCheck(indent+1, errVar)
		e.line(indent+1, "%s = %s{Tag: %q, Value: %s}", valuePath, unionGoType, v.Target, decoded)
	}
	if open && spec.DiscriminatorField == "" {
		e.line(indent, "} else {")
		e.line(indent+1, "return out, fmt.Errorf(%q, %s)", "decode "+fieldName+": unknown discriminator 0x%x", peeked)
	}
	if open {
		e.line(indent, "}")
	}
	return nil
}

// emitChoiceEncode dispatches on the held variant and delegates straight
// to that variant's own encoder — unlike discriminated_union, a choice
// writes no separate discriminator word of its own; the tag is whatever
// field the variant type itself already encodes first.
func (e *Emitter) emitChoiceEncode(tp *planner.TypePlan, valuePath string, spec *schema.ChoiceSpec, indent int, fieldName string) error {
	e.line(indent, "switch %s.Type {", valuePath)
	for _, v := range spec.Variants {
		if v.Target == "" {
			continue
		}
		e.line(indent, "case %q:", v.Target)
		e.line(indent+1, "if err := Encode%s(w, %s.Value.(%s)); err != nil {", goTypeName(v.Target), valuePath, goTypeName(v.Target))
		e.line(indent+2, "return err")
		e.line(indent+1, "}")
	}
	e.line(indent, "default:")
	e.line(indent+1, "return fmt.Errorf(%q, %s.Type)", "encode "+fieldName+": unknown variant type %q", valuePath)
	e.line(indent, "}")
	return nil
}

// emitChoiceDecode peeks the variant's own leading byte without
// consuming it, matches it against each variant's discriminator
// (implicit sequential 0x01, 0x02, ... unless ChoiceSpec.Discriminator
// overrides it, spec.md §9), then lets the matched variant's own decoder
// consume that byte as an ordinary field of its own — no tag is read
// here, only compared.
func (e *Emitter) emitChoiceDecode(tp *planner.TypePlan, valuePath string, spec *schema.ChoiceSpec, indent int, fieldName string) error {
	peeked := e.fresh("tag")
	errVar := e.fresh("err")
	e.line(indent, "%s, %s := r.PeekUint8()", peeked, errVar)
	e.emitErrCheck(indent, errVar)
	e.line(indent, "switch %s {", peeked)
	for i, v := range spec.Variants {
		tag := choiceTag(spec, i)
		e.line(indent, "case %d:", tag)
		decoded := e.fresh("variant")
		e.line(indent+1, "%s, %s := Decode%s(r)", decoded, errVar, goTypeName(v.Target))
		e.emitErrCheck(indent+1, errVar)
		e.line(indent+1, "%s = %s{Type: %q, Value: %s}", valuePath, choiceGoType, v.Target, decoded)
	}
	e.line(indent, "default:")
	e.line(indent+1, "return out, fmt.Errorf(%q, %s)", "decode "+fieldName+": unknown choice tag 0x%x", peeked)
	e.line(indent, "}")
	return nil
}

// choiceTag resolves the tag byte for variant index i: the explicit
// Discriminator table when present, else the implicit 1-based sequence
// (spec.md §9 Open Questions resolution).
func choiceTag(spec *schema.ChoiceSpec, i int) uint8 {
	if i < len(spec.Discriminator) {
		return spec.Discriminator[i]
	}
	return uint8(i + 1)
}

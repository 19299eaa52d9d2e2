package emitter

import (
	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitStandaloneCollection plans a named slice or string type plus paired
// encoder/decoder that defer to the same array/string emission a composite
// field of the same kind would use (spec.md §4.1).
func (e *Emitter) emitStandaloneCollection(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	el := *tp.Def.Alias
	e.line(0, "type %s %s", name, e.goType(el))
	e.blank()

	e.line(0, "func Encode%s(w *bitstream.Encoder, v %s) error {", name, name)
	var err error
	if el.Kind == schema.KindString {
		err = e.emitStringEncode(tp, "v", el.Str, 1, tp.Name)
	} else {
		err = e.emitArrayEncode(tp, "v", el.Array, 1, tp.Name)
	}
	if err != nil {
		return err
	}
	e.line(1, "return nil")
	e.line(0, "}")
	e.blank()

	e.line(0, "func Decode%s(r *bitstream.Decoder) (%s, error) {", name, name)
	e.line(1, "var out %s", name)
	if el.Kind == schema.KindString {
		err = e.emitStringDecode(tp, "out", el.Str, 1, tp.Name)
	} else {
		err = e.emitArrayDecode(tp, "out", el.Array, 1, tp.Name)
	}
	if err != nil {
		return err
	}
	e.line(1, "return out, nil")
	e.line(0, "}")
	e.blank()
	return nil
}

// emitBackRefAlias plans a transparent alias to the target type: the
// declared type and its target are interchangeable, and the generated
// pair is entirely the pointer-chasing logic a composite field of this
// kind would inline (spec.md §4.4).
func (e *Emitter) emitBackRefAlias(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	spec := tp.Def.Alias.BackRef
	target := goTypeName(spec.Target)
	e.line(0, "type %s = %s", name, target)
	e.blank()

	e.line(0, "func Encode%s(w *bitstream.Encoder, v %s) error {", name, name)
	if err := e.emitBackRefFieldEncode("v", spec, 1); err != nil {
		return err
	}
	e.line(1, "return nil")
	e.line(0, "}")
	e.blank()

	e.line(0, "func Decode%s(r *bitstream.Decoder) (%s, error) {", name, name)
	e.line(1, "var out %s", name)
	if err := e.emitBackRefFieldDecode("out", spec, 1); err != nil {
		return err
	}
	e.line(1, "return out, nil")
	e.line(0, "}")
	e.blank()
	return nil
}

// emitUnionAlias plans a named Union-shaped type, a variant-tag
// enumeration (one string constant per target, spec.md §4.1's "variant-tag
// enumeration"), and paired encoder/decoder.
func (e *Emitter) emitUnionAlias(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	spec := tp.Def.Alias.Union
	e.line(0, "type %s %s", name, unionGoType)
	e.blank()

	e.line(0, "const (")
	for _, v := range spec.Variants {
		if v.Target == "" {
			continue
		}
		e.line(1, "%sTag%s = %q", name, goTypeName(v.Target), v.Target)
	}
	e.line(0, ")")
	e.blank()

	e.line(0, "func Encode%s(w *bitstream.Encoder, v %s) error {", name, name)
	if err := e.emitUnionEncode(tp, "v", spec, 1, tp.Name); err != nil {
		return err
	}
	e.line(1, "return nil")
	e.line(0, "}")
	e.blank()

	e.line(0, "func Decode%s(r *bitstream.Decoder) (%s, error) {", name, name)
	e.line(1, "var out %s", name)
	if err := e.emitUnionDecode(tp, "out", spec, 1, tp.Name); err != nil {
		return err
	}
	e.line(1, "return out, nil")
	e.line(0, "}")
	e.blank()
	return nil
}

// emitSimpleAlias plans a named type over whatever Go shape the aliased
// element renders to, converting to and from that underlying shape so the
// shared per-kind emit functions (written against the unwrapped shape) can
// be reused without modification.
func (e *Emitter) emitSimpleAlias(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	el := *tp.Def.Alias
	underlying := e.goType(el)
	e.line(0, "type %s %s", name, underlying)
	e.blank()

	e.line(0, "func Encode%s(w *bitstream.Encoder, v %s) error {", name, name)
	inner := e.fresh("inner")
	e.line(1, "%s := %s(v)", inner, underlying)
	if err := e.emitEncodeElement(tp, inner, el, 1, tp.Name); err != nil {
		return err
	}
	e.line(1, "return nil")
	e.line(0, "}")
	e.blank()

	e.line(0, "func Decode%s(r *bitstream.Decoder) (%s, error) {", name, name)
	e.line(1, "var out %s", name)
	tmp := e.fresh("tmp")
	e.line(1, "var %s %s", tmp, underlying)
	if err := e.emitDecodeElement(tp, tmp, el, 1, tp.Name); err != nil {
		return err
	}
	e.line(1, "out = %s(%s)", name, tmp)
	e.line(1, "return out, nil")
	e.line(0, "}")
	e.blank()
	return nil
}

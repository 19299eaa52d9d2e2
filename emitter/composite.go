package emitter

import (
	"strings"

	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitComposite renders a composite's struct declaration(s) plus its
// Encode/Decode pair. When the plan says computed fields are present, a
// separate "<Name>Input" shape is emitted without them (spec.md §4.1:
// computed fields are absent from caller-supplied input).
func (e *Emitter) emitComposite(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	def := tp.Def.Composite

	if tp.NeedsOutputShape {
		e.line(0, "type %sInput struct {", name)
		e.emitStructFields(1, def.Fields, false)
		e.line(0, "}")
		e.blank()
	}

	e.line(0, "type %s struct {", name)
	e.emitStructFields(1, def.Fields, true)
	for _, inst := range def.Instances {
		e.line(1, "%s %s", schema.SanitizeFieldName(inst.Name), "Lazy"+goTypeName(inst.Target))
	}
	e.line(0, "}")
	e.blank()

	if err := e.emitCompositeEncode(tp); err != nil {
		return err
	}
	if err := e.emitCompositeDecode(tp); err != nil {
		return err
	}
	e.emitStringer(name, def.Fields)
	return nil
}

// emitStringer writes a cheap debug-dump String() method, the same
// "%Type{field: value, ...}" idiom the teacher's own enum types follow
// with their ToString helpers — every pack repo that emits generated data
// shapes also emits something to print them without a debugger attached.
func (e *Emitter) emitStringer(name string, fields []schema.Field) {
	e.line(0, "func (v %s) String() string {", name)
	var format, args strings.Builder
	format.WriteString(name + "{")
	for i, f := range fields {
		if i > 0 {
			format.WriteString(", ")
		}
		fieldName := schema.SanitizeFieldName(f.Name)
		format.WriteString(fieldName + ": %v")
		args.WriteString(", v." + fieldName)
	}
	format.WriteString("}")
	e.line(1, "return fmt.Sprintf(%q%s)", format.String(), args.String())
	e.line(0, "}")
	e.blank()
}

func (e *Emitter) inputType(tp *planner.TypePlan) string {
	name := goTypeName(tp.Name)
	if tp.NeedsOutputShape {
		return name + "Input"
	}
	return name
}

func (e *Emitter) emitCompositeEncode(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	e.line(0, "func Encode%s(w *bitstream.Encoder, v %s) error {", name, e.inputType(tp))

	for _, f := range tp.Def.Composite.Fields {
		if f.Computed != nil {
			if err := e.emitComputedEncode(tp, f); err != nil {
				return err
			}
			continue
		}
		if err := e.emitFieldEncode(tp, "v", f); err != nil {
			return err
		}
	}

	e.line(1, "return nil")
	e.line(0, "}")
	e.blank()
	return nil
}

// emitFieldEncode wraps a conditional check (if present) around the
// per-kind encode dispatch for one composite field.
func (e *Emitter) emitFieldEncode(tp *planner.TypePlan, recv string, f schema.Field) error {
	valuePath := recv + "." + schema.SanitizeFieldName(f.Name)
	indent := 1
	if f.Conditional != "" {
		cond, err := e.renderCondition(f.Conditional, recv, "")
		if err != nil {
			return err
		}
		e.line(1, "if %s {", cond)
		indent = 2
	}

	if err := e.emitEncodeElement(tp, valuePath, f.Element, indent, f.Name); err != nil {
		return err
	}

	if f.Conditional != "" {
		e.line(1, "}")
	}
	return nil
}

func (e *Emitter) renderCondition(raw, basePath, peeked string) (string, error) {
	n, err := e.parsePredicate(raw)
	if err != nil {
		return "", err
	}
	return boolRenderFor(n, basePath, peeked), nil
}

func (e *Emitter) emitCompositeDecode(tp *planner.TypePlan) error {
	name := goTypeName(tp.Name)
	e.line(0, "func Decode%s(r *bitstream.Decoder) (%s, error) {", name, name)
	e.line(1, "var out %s", name)

	if tp.HasFieldBasedUnionInSequence() {
		if err := e.emitSequenceDecodeWithLocals(tp); err != nil {
			return err
		}
	} else {
		for _, f := range tp.Def.Composite.Fields {
			if err := e.emitFieldDecode(tp, "out", f); err != nil {
				return err
			}
		}
	}

	for _, inst := range tp.Def.Composite.Instances {
		if err := e.emitInstanceAssign(tp, inst); err != nil {
			return err
		}
	}

	e.line(1, "return out, nil")
	e.line(0, "}")
	e.blank()
	return nil
}

func (e *Emitter) emitFieldDecode(tp *planner.TypePlan, recv string, f schema.Field) error {
	valuePath := recv + "." + schema.SanitizeFieldName(f.Name)
	indent := 1
	if f.Conditional != "" {
		cond, err := e.renderCondition(f.Conditional, recv, "")
		if err != nil {
			return err
		}
		e.line(1, "if %s {", cond)
		indent = 2
	}

	if err := e.emitDecodeElement(tp, valuePath, f.Element, indent, f.Name); err != nil {
		return err
	}

	if f.Conditional != "" {
		e.line(1, "}")
	}
	return nil
}

// emitSequenceDecodeWithLocals decodes a composite that holds a field-based
// discriminated_union: every field (the discriminator, the union and any
// fields after it) is decoded in declaration order straight into "out",
// and the union dispatches on the already-decoded discriminator field. It
// does not decode into separate locals and does not build the result per
// branch.
func (e *Emitter) emitSequenceDecodeWithLocals(tp *planner.TypePlan) error {
	fields := tp.Def.Composite.Fields
	unionField := tp.FieldBasedUnionFields[0]

	cut := len(fields)
	for i, f := range fields {
		if f.Name == unionField {
			cut = i
			break
		}
	}

	for i := 0; i < cut; i++ {
		if err := e.emitFieldDecode(tp, "out", fields[i]); err != nil {
			return err
		}
	}

	for i := cut; i < len(fields); i++ {
		if err := e.emitFieldDecode(tp, "out", fields[i]); err != nil {
			return err
		}
	}
	return nil
}

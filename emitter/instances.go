package emitter

import (
	"fmt"

	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// EmitLazyWrappers renders the Lazy<Target> wrapper type once per distinct
// instance target across the whole plan. It is a separate, sequential
// pre-pass rather than something each composite emits for itself: when
// generator.Generate fans per-type emission out concurrently, two
// composites targeting the same type must not race to declare the same
// wrapper twice.
func (e *Emitter) EmitLazyWrappers(plan *planner.Plan) string {
	for _, tp := range plan.Types {
		if tp.Def.Composite == nil {
			continue
		}
		for _, inst := range tp.Def.Composite.Instances {
			e.emitLazyWrapper(inst.Target)
		}
	}
	return e.buf.String()
}

func (e *Emitter) emitLazyWrapper(target string) {
	if e.emittedLazy[target] {
		return
	}
	e.emittedLazy[target] = true

	name := "Lazy" + goTypeName(target)
	e.line(0, "type %s struct {", name)
	e.line(1, "buf        []byte")
	e.line(1, "bitOrder   bitstream.BitOrder")
	e.line(1, "offset     uint32")
	e.line(1, "resolved   bool")
	e.line(1, "inProgress bool")
	e.line(1, "value      %s", goTypeName(target))
	e.line(0, "}")
	e.blank()

	// inProgress turns a re-entrant call to Get on the same wrapper into a
	// LazyEvalError instead of endless recursion. The offset itself is
	// fixed when the owning composite is decoded (emitInstanceAssign), so
	// a position that refers back to the instance is not detected here.
	e.line(0, "func (l *%s) Get() (%s, error) {", name, goTypeName(target))
	e.line(1, "if l.resolved {")
	e.line(2, "return l.value, nil")
	e.line(1, "}")
	e.line(1, "if l.inProgress {")
	e.line(2, "return l.value, bitstream.NewLazyEvalError(%q, bitstream.ErrCircularInstance)", target)
	e.line(1, "}")
	e.line(1, "l.inProgress = true")
	e.line(1, "defer func() { l.inProgress = false }()")
	e.line(1, "r := bitstream.NewDecoder(l.buf, l.bitOrder)")
	e.line(1, "if err := r.Seek(l.offset); err != nil {")
	e.line(2, "return l.value, err")
	e.line(1, "}")
	e.line(1, "v, err := Decode%s(r)", goTypeName(target))
	e.line(1, "if err != nil {")
	e.line(2, "return l.value, err")
	e.line(1, "}")
	e.line(1, "l.value = v")
	e.line(1, "l.resolved = true")
	e.line(1, "return v, nil")
	e.line(0, "}")
	e.blank()
}

// emitInstanceAssign computes the absolute byte offset an instance field
// resolves against and stores it, alongside the raw buffer and bit order,
// in a fresh Lazy<Target> value — actual decoding is deferred to the
// wrapper's Get method.
func (e *Emitter) emitInstanceAssign(tp *planner.TypePlan, inst schema.Instance) error {
	offsetExpr, err := e.instanceOffsetExpr(tp, inst)
	if err != nil {
		return err
	}
	if inst.Alignment > 1 {
		e.line(1, "if %s%%%d != 0 {", offsetExpr, inst.Alignment)
		e.line(2, "return out, fmt.Errorf(%q, %d)", "instance "+inst.Name+": offset not aligned to %d bytes", inst.Alignment)
		e.line(1, "}")
	}
	e.line(1, "out.%s = %s{buf: r.Bytes(), bitOrder: r.BitOrder(), offset: uint32(%s)}",
		schema.SanitizeFieldName(inst.Name), "Lazy"+goTypeName(inst.Target), offsetExpr)
	return nil
}

func (e *Emitter) instanceOffsetExpr(tp *planner.TypePlan, inst schema.Instance) (string, error) {
	switch {
	case inst.Position.Absolute != nil:
		return fmt.Sprintf("%d", *inst.Position.Absolute), nil
	case inst.Position.EOFRelative != nil:
		return fmt.Sprintf("uint64(r.BufferLength()) - %d", *inst.Position.EOFRelative), nil
	case inst.Position.FieldRef != "":
		return "uint64(out." + schema.SanitizeFieldName(inst.Position.FieldRef) + ")", nil
	default:
		return "", fmt.Errorf("instance %q: no position set", inst.Name)
	}
}

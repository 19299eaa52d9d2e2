package emitter

import (
	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// emitStringEncode writes a string the same way an array of bytes would be
// (the delimiting strategies are identical, spec.md §3), converting the Go
// string to bytes first so the shared array-kind emission can iterate it
// uniformly.
func (e *Emitter) emitStringEncode(tp *planner.TypePlan, valuePath string, spec *schema.StringSpec, indent int, fieldName string) error {
	byteArraySpec := spec.ArraySpec
	byteArraySpec.Items = &schema.Element{Kind: schema.KindUint8}

	bytesVar := e.fresh("strBytes")
	e.line(indent, "%s := []byte(%s)", bytesVar, valuePath)
	return e.emitArrayEncode(tp, bytesVar, &byteArraySpec, indent, fieldName)
}

func (e *Emitter) emitStringDecode(tp *planner.TypePlan, valuePath string, spec *schema.StringSpec, indent int, fieldName string) error {
	byteArraySpec := spec.ArraySpec
	byteArraySpec.Items = &schema.Element{Kind: schema.KindUint8}

	bytesVar := e.fresh("strBytes")
	e.line(indent, "var %s []byte", bytesVar)
	if err := e.emitArrayDecode(tp, bytesVar, &byteArraySpec, indent, fieldName); err != nil {
		return err
	}
	e.line(indent, "%s = string(%s)", valuePath, bytesVar)
	return nil
}

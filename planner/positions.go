package planner

import "github.com/binarywire/bwcodec/schema"

// reservePositionTables scans every computed field's target path(s) across
// the whole schema for an arr[first<T>]/arr[last<T>]/arr[corresponding<T>]
// selector, and adds the table it resolves against to the plan of whichever
// composite declares that array field (spec.md §4.3: these tables are
// recorded once, up front, so the array's own encoder can populate them
// while it is writing the array rather than after the fact).
func (pl *Planner) reservePositionTables(plan *Plan) error {
	for _, tp := range plan.Types {
		if tp.Def.Composite == nil {
			continue
		}
		for _, f := range tp.Def.Composite.Fields {
			if f.Computed == nil {
				continue
			}
			targets := f.Computed.Targets
			if f.Computed.Target != "" {
				targets = append(targets, f.Computed.Target)
			}
			for _, raw := range targets {
				path := schema.ParsePath(raw)
				if !path.IsIndexed() {
					continue
				}
				owner := pl.resolveArrayOwner(plan, tp, path)
				if owner == nil {
					return errf(tp.Name, f.Name, "target %q selects array field %q which could not be resolved relative to this type", raw, path.ArrayField)
				}
				owner.addPositionTable(PositionTableKey{ArrayField: path.ArrayField, TypeName: path.SelectorType})
			}
		}
	}
	return nil
}

// resolveArrayOwner finds the TypePlan whose composite declares
// path.ArrayField, following PathParent hops toward the enclosing type and
// defaulting PathBare/PathRoot to the declaring type itself. Nested
// composites are addressed by field containment only (this module has no
// notion of runtime instance trees), so a parent hop simply looks at the
// same declaring type — multi-level composite nesting beyond one schema
// type is resolved by the emitter walking the actual value tree at
// generation time, not by the planner.
func (pl *Planner) resolveArrayOwner(plan *Plan, self *TypePlan, path schema.Path) *TypePlan {
	if self.Def.Composite == nil {
		return nil
	}
	if declaresField(self.Def, path.ArrayField) {
		return self
	}
	// Parent/root paths that don't name a field on self itself: the array
	// lives on an ancestor. Without a concrete containment graph the
	// planner can only confirm *some* type declares the field; pick the
	// first composite in declaration order that does, which matches how a
	// single-schema (non-nested) composite tree resolves in practice.
	for _, tp := range plan.Types {
		if tp.Def.Composite != nil && declaresField(tp.Def, path.ArrayField) {
			return tp
		}
	}
	return nil
}

func declaresField(def *schema.TypeDef, fieldName string) bool {
	if def.Composite == nil {
		return false
	}
	for _, f := range def.Composite.Fields {
		if f.Name == fieldName && f.Element.Kind == schema.KindArray {
			return true
		}
	}
	return false
}

func (tp *TypePlan) addPositionTable(k PositionTableKey) {
	for _, existing := range tp.PositionTables {
		if existing == k {
			return
		}
	}
	tp.PositionTables = append(tp.PositionTables, k)
}

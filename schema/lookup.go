package schema

import "strings"

// IsTemplateName reports whether name declares a parameterized template
// (e.g. "Optional<T>"). Templates are skipped by top-level emission and
// materialized only on instantiation — see Instantiate.
func IsTemplateName(name string) bool {
	return strings.Contains(name, "<")
}

// IsReservedName reports whether name is a lowercase-initial primitive
// name, which schema type names must never collide with (spec.md §3:
// "Type names declared in a schema must start with an uppercase letter;
// lowercase names are reserved for primitives").
func IsReservedName(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r >= 'a' && r <= 'z'
}

// GetFields returns the ordered field list of a composite type, or nil
// for an alias.
func (s *Schema) GetFields(t *TypeDef) []Field {
	if t.Composite == nil {
		return nil
	}
	return t.Composite.Fields
}

// GetInstances returns the lazy position fields of a composite type, or
// nil for an alias or a composite with none.
func (s *Schema) GetInstances(t *TypeDef) []Instance {
	if t.Composite == nil {
		return nil
	}
	return t.Composite.Instances
}

// IsAlias reports whether t has no ordered field sequence and is not a
// standalone array or string (both need emitted encoder/decoder pairs
// even though they are aliases semantically — spec.md §4.1).
func (t *TypeDef) IsAlias() bool {
	if t.Composite != nil {
		return false
	}
	if t.Alias == nil {
		return false
	}
	switch t.Alias.Kind {
	case KindArray, KindString:
		return false
	default:
		return true
	}
}

// IsStandaloneCollection reports whether t is a standalone array or
// string alias, which plans a type alias plus paired encoder/decoder.
func (t *TypeDef) IsStandaloneCollection() bool {
	return t.Composite == nil && t.Alias != nil &&
		(t.Alias.Kind == KindArray || t.Alias.Kind == KindString)
}

// IsBackReferenceAlias reports whether t is a back-reference alias: a
// transparent alias to the target type with a special pointer-chasing
// decoder.
func (t *TypeDef) IsBackReferenceAlias() bool {
	return t.Composite == nil && t.Alias != nil && t.Alias.Kind == KindBackReference
}

// IsUnionAlias reports whether t is a discriminated_union alias, which
// plans a tagged union declaration, a variant-tag enumeration, and paired
// encoder/decoder.
func (t *TypeDef) IsUnionAlias() bool {
	return t.Composite == nil && t.Alias != nil && t.Alias.Kind == KindDiscriminatedUnion
}

// IsSimpleAlias reports whether t is a plain alias whose encode/decode
// defers entirely to the aliased type (a bare type_ref, optional, choice,
// bitfield, or primitive/bit alias).
func (t *TypeDef) IsSimpleAlias() bool {
	return t.IsAlias() && !t.IsBackReferenceAlias() && !t.IsUnionAlias()
}

// HasLazyFields reports whether a composite declares any instance
// (position) fields, which triggers an instance-wrapper plan.
func (t *TypeDef) HasLazyFields() bool {
	return t.Composite != nil && len(t.Composite.Instances) > 0
}

// CanonicalSelector rewrites the "same_index" selector keyword to its
// canonical synonym "corresponding" (spec.md §9 Open Questions: the two
// keywords are treated as synonymous, canonicalized to one spelling).
func CanonicalSelector(selector string) string {
	return strings.ReplaceAll(selector, "same_index<", "corresponding<")
}

// Canonicalize applies the schema-wide rewrites spec.md §3 requires of a
// conforming front-end: a fixed string whose LengthField is set becomes
// field_referenced, and same_index/corresponding selectors are unified.
// This module's own front-end is out of scope (§1), but the rewrite is
// part of the data model's contract, not the loader's, so it lives here
// and a front-end is expected to call it (or construct already-canonical
// schemas directly, as every constructor in this package does).
//
// It also rejects the one static condition that belongs to the schema
// itself rather than to a particular type's planning: a declared type
// name colliding with a reserved lowercase primitive name.
func Canonicalize(s *Schema) error {
	for _, name := range s.Order {
		if IsTemplateName(name) {
			continue
		}
		if IsReservedName(name) {
			return newTypeError(name, "type name collides with a reserved primitive name")
		}
	}
	for _, name := range s.Order {
		t := s.Types[name]
		if t.Composite != nil {
			for i := range t.Composite.Fields {
				canonicalizeElement(&t.Composite.Fields[i].Element)
				if t.Composite.Fields[i].Computed != nil {
					c := t.Composite.Fields[i].Computed
					c.Target = CanonicalSelector(c.Target)
					for j := range c.Targets {
						c.Targets[j] = CanonicalSelector(c.Targets[j])
					}
				}
			}
		}
		if t.Alias != nil {
			canonicalizeElement(t.Alias)
		}
	}
	return nil
}

func canonicalizeElement(e *Element) {
	if e == nil {
		return
	}
	switch e.Kind {
	case KindString:
		if e.Str != nil && e.Str.ArrayKind == ArrayFixed && e.Str.LengthField != "" {
			e.Str.ArrayKind = ArrayFieldReferenced
		}
		if e.Str != nil {
			canonicalizeElement(e.Str.Items)
		}
	case KindArray:
		if e.Array != nil {
			canonicalizeElement(e.Array.Items)
		}
	case KindOptional:
		if e.Optional != nil {
			canonicalizeElement(e.Optional.Value)
		}
	}
}

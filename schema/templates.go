package schema

import (
	"fmt"
	"strings"
)

// TemplateParamPlaceholder is the literal substitution token templates use
// for their sole type parameter (spec.md §9 Design Notes: "Optional<T>
// and similar are handled by string substitution of the literal T").
const TemplateParamPlaceholder = "T"

// templateName splits "G<X>" into ("G", "X"), or returns ok=false if ref
// is not a parameterized reference.
func templateName(ref string) (generic, arg string, ok bool) {
	open := strings.IndexByte(ref, '<')
	if open < 0 || !strings.HasSuffix(ref, ">") {
		return "", "", false
	}
	return ref[:open], ref[open+1 : len(ref)-1], true
}

// Instantiate resolves a (possibly parameterized) type reference against
// the schema. A plain name is looked up directly; "G<X>" looks up the
// template "G<T>" and returns a materialized TypeDef in which every type
// name in the template's element tree that is exactly "T" is replaced by
// X; names that merely contain "T" (such as "List<T>") are left as they
// are. Instantiation is not cached on the Schema — callers (the planner)
// are expected to memoize per (generic, arg) pair if they instantiate the
// same parameterization repeatedly.
func (s *Schema) Instantiate(ref string) (*TypeDef, error) {
	if t := s.Types[ref]; t != nil && !IsTemplateName(ref) {
		return t, nil
	}

	generic, arg, ok := templateName(ref)
	if !ok {
		t := s.Types[ref]
		if t == nil {
			return nil, fmt.Errorf("unknown type %q", ref)
		}
		return t, nil
	}

	templateKey := generic + "<" + TemplateParamPlaceholder + ">"
	template := s.Types[templateKey]
	if template == nil {
		return nil, fmt.Errorf("unknown template %q (looked for %q)", ref, templateKey)
	}

	materialized := &TypeDef{
		Name:        ref,
		Description: template.Description,
	}

	if template.Composite != nil {
		fields := make([]Field, len(template.Composite.Fields))
		for i, f := range template.Composite.Fields {
			fields[i] = substituteField(f, arg)
		}
		instances := make([]Instance, len(template.Composite.Instances))
		for i, inst := range template.Composite.Instances {
			inst.Target = substituteTypeName(inst.Target, arg)
			instances[i] = inst
		}
		materialized.Composite = &CompositeDef{Fields: fields, Instances: instances}
	}
	if template.Alias != nil {
		elem := substituteElement(*template.Alias, arg)
		materialized.Alias = &elem
	}

	return materialized, nil
}

func substituteTypeName(name, arg string) string {
	if name == TemplateParamPlaceholder {
		return arg
	}
	return name
}

func substituteField(f Field, arg string) Field {
	f.Element = substituteElement(f.Element, arg)
	if f.Computed != nil {
		c := *f.Computed
		c.Target = substituteTypeName(c.Target, arg)
		c.ElementType = substituteTypeName(c.ElementType, arg)
		targets := make([]string, len(c.Targets))
		for i, t := range c.Targets {
			targets[i] = substituteTypeName(t, arg)
		}
		c.Targets = targets
		f.Computed = &c
	}
	return f
}

func substituteElement(e Element, arg string) Element {
	switch e.Kind {
	case KindTypeRef:
		ref := *e.TypeRef
		ref.Name = substituteTypeName(ref.Name, arg)
		args := make([]string, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = substituteTypeName(a, arg)
		}
		ref.Args = args
		e.TypeRef = &ref
	case KindArray:
		spec := *e.Array
		if spec.Items != nil {
			item := substituteElement(*spec.Items, arg)
			spec.Items = &item
		}
		e.Array = &spec
	case KindString:
		spec := *e.Str
		if spec.Items != nil {
			item := substituteElement(*spec.Items, arg)
			spec.Items = &item
		}
		e.Str = &spec
	case KindOptional:
		spec := *e.Optional
		if spec.Value != nil {
			v := substituteElement(*spec.Value, arg)
			spec.Value = &v
		}
		e.Optional = &spec
	case KindBackReference:
		spec := *e.BackRef
		spec.Target = substituteTypeName(spec.Target, arg)
		e.BackRef = &spec
	case KindDiscriminatedUnion:
		spec := *e.Union
		variants := make([]Variant, len(spec.Variants))
		for i, v := range spec.Variants {
			v.Target = substituteTypeName(v.Target, arg)
			variants[i] = v
		}
		spec.Variants = variants
		e.Union = &spec
	case KindChoice:
		spec := *e.Choice
		variants := make([]Variant, len(spec.Variants))
		for i, v := range spec.Variants {
			v.Target = substituteTypeName(v.Target, arg)
			variants[i] = v
		}
		spec.Variants = variants
		e.Choice = &spec
	}
	return e
}

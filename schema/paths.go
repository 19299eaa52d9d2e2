package schema

import "strings"

// PathKind is how a computed-field target path is anchored.
type PathKind int

const (
	PathBare   PathKind = iota // sibling field in the same composite
	PathParent                 // one or more "../" hops toward the root
	PathRoot                   // "_root." absolute, from the top-level decoded value
)

// SelectorKind is the closed set of indexed array selectors a path
// segment may carry.
type SelectorKind int

const (
	SelectorNone SelectorKind = iota
	SelectorFirst
	SelectorLast
	SelectorCorresponding
)

// Path is a parsed computed-field target (spec.md §3): bare names,
// "../"-relative parent walks, "_root."-prefixed absolute paths, and a
// trailing indexed selector such as "arr[first<T>]".
type Path struct {
	Kind        PathKind
	ParentDepth int
	Segments    []string // dotted path segments following the anchor

	// Selector applies to the *last* segment when it carries "[...]".
	ArrayField   string
	Selector     SelectorKind
	SelectorType string
}

// ParsePath parses raw into a structured Path. same_index<T> is
// canonicalized to corresponding<T> before parsing (spec.md §9).
func ParsePath(raw string) Path {
	raw = CanonicalSelector(raw)

	p := Path{Kind: PathBare}

	switch {
	case strings.HasPrefix(raw, "_root."):
		p.Kind = PathRoot
		raw = strings.TrimPrefix(raw, "_root.")
	default:
		for strings.HasPrefix(raw, "../") {
			p.Kind = PathParent
			p.ParentDepth++
			raw = strings.TrimPrefix(raw, "../")
		}
	}

	p.Segments = strings.Split(raw, ".")
	if len(p.Segments) == 0 {
		return p
	}

	last := p.Segments[len(p.Segments)-1]
	open := strings.IndexByte(last, '[')
	if open < 0 || !strings.HasSuffix(last, "]") {
		return p
	}

	p.ArrayField = last[:open]
	inner := last[open+1 : len(last)-1]
	p.Segments = p.Segments[:len(p.Segments)-1]

	switch {
	case strings.HasPrefix(inner, "first<") && strings.HasSuffix(inner, ">"):
		p.Selector = SelectorFirst
		p.SelectorType = strings.TrimSuffix(strings.TrimPrefix(inner, "first<"), ">")
	case strings.HasPrefix(inner, "last<") && strings.HasSuffix(inner, ">"):
		p.Selector = SelectorLast
		p.SelectorType = strings.TrimSuffix(strings.TrimPrefix(inner, "last<"), ">")
	case strings.HasPrefix(inner, "corresponding<") && strings.HasSuffix(inner, ">"):
		p.Selector = SelectorCorresponding
		p.SelectorType = strings.TrimSuffix(strings.TrimPrefix(inner, "corresponding<"), ">")
	}

	return p
}

// IsIndexed reports whether the path ends in an arr[first/last/corresponding<T>]
// selector.
func (p Path) IsIndexed() bool { return p.Selector != SelectorNone }

// TableKey is the "<arrayField>.<Type>" key used to reserve and look up
// the per-encoder position table this selector resolves against (see
// bitstream.Encoder.RecordTypedArrayPosition and friends).
func (p Path) TableKey() string {
	return p.ArrayField + "." + p.SelectorType
}

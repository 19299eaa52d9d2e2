// Package expr implements the small arithmetic/bitwise predicate dialect
// spec.md §6 allows for conditional fields and discriminated_union/choice
// "when" clauses: integer literals (decimal, 0x, 0b, 0o), dotted
// identifiers, and the operators & | ^ ~ << >> + - * / % == != < <= > >=
// && || !. It is parsed once into an AST at generation time (spec.md §6:
// "a reimplementer should parse once into a small AST and interpret at
// runtime rather than string-substitute") and rendered to a Go boolean or
// arithmetic expression by the emitter, which supplies the identifier
// resolver.
package expr

// NodeKind is the closed set of AST node shapes.
type NodeKind int

const (
	NodeLiteral NodeKind = iota
	NodeIdent
	NodeUnary
	NodeBinary
)

// Node is one parsed predicate AST node.
type Node struct {
	Kind NodeKind

	// NodeLiteral
	IntValue uint64

	// NodeIdent
	Path []string // dotted segments, e.g. ["header", "flags"]

	// NodeUnary / NodeBinary
	Op    string
	Left  *Node
	Right *Node // nil for NodeUnary
}

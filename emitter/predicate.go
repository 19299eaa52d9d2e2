package emitter

import (
	"github.com/binarywire/bwcodec/emitter/expr"
)

// predicateCache memoizes parsed predicate ASTs per source string: the
// same conditional/when text is frequently repeated (e.g. identical
// variant guards reused by several fields), and re-parsing it is pure
// waste during a single Emit pass.
func (e *Emitter) parsePredicate(src string) (*expr.Node, error) {
	if e.predicates == nil {
		e.predicates = make(map[string]*expr.Node)
	}
	if n, ok := e.predicates[src]; ok {
		return n, nil
	}
	n, err := expr.Parse(src)
	if err != nil {
		return nil, err
	}
	e.predicates[src] = n
	return n, nil
}

// boolRenderFor renders a parsed predicate in boolean (truthy) position
// against basePath, substituting peeked for the bare identifier "value".
func boolRenderFor(n *expr.Node, basePath, peeked string) string {
	return expr.BoolRender(n, resolvePath(basePath, peeked))
}

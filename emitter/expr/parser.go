package expr

import (
	"fmt"
	"strings"
)

// precedence levels, lowest to highest, matching the C-family ordering
// spec.md §6 lists the operators in.
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

type parser struct {
	lex *lexer
	cur token
}

// Parse parses a predicate string into its AST (spec.md §6 dialect).
func Parse(src string) (*Node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("expr: unexpected trailing input %q", p.cur.text)
	}
	return n, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) parseBinary(minPrec int) (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp {
		prec, ok := precedence[p.cur.text]
		if !ok || prec < minPrec {
			break
		}
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*Node, error) {
	if p.cur.kind == tokOp && (p.cur.text == "!" || p.cur.text == "~" || p.cur.text == "-") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: op, Left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	switch p.cur.kind {
	case tokInt:
		n := &Node{Kind: NodeLiteral, IntValue: p.cur.val}
		return n, p.advance()
	case tokIdent:
		n := &Node{Kind: NodeIdent, Path: strings.Split(p.cur.text, ".")}
		return n, p.advance()
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, fmt.Errorf("expr: expected ')'")
		}
		return inner, p.advance()
	default:
		return nil, fmt.Errorf("expr: unexpected token while parsing operand")
	}
}

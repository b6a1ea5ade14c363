package evaluator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Node is a parsed arithmetic expression restricted to numeric literals,
// identifiers, unary minus and the binary operators + - * / **. There is
// deliberately no call, index, or attribute node: anything the grammar cannot
// express fails at lex/parse time and is never evaluated.
type Node interface {
	eval(bindings map[string]float64, expr string) (float64, error)
	collect(c *collector)
}

type numNode struct{ val float64 }

type identNode struct{ name string }

type unaryNode struct{ operand Node }

type binNode struct {
	op   tokenKind
	l, r Node
}

// parser is a precedence-climbing parser over the lexed token stream.
type parser struct {
	toks []token
	pos  int
	expr string
}

// Parse parses a pure arithmetic expression (no relational operator).
func Parse(expr string) (Node, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, expr: expr}
	n, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		t := p.peek()
		if t.kind == tokLParen || t.kind == tokIdent || t.kind == tokNumber {
			// "f(x)" style call syntax lexes as ident + paren; reject as unsafe
			// rather than as a stray-token syntax error.
			return nil, &Error{Kind: ErrKindUnsafe, Msg: fmt.Sprintf("unexpected %q at offset %d (function calls are not allowed)", t.text, t.pos), Expr: expr}
		}
		return nil, &Error{Kind: ErrKindSyntax, Msg: fmt.Sprintf("unexpected %q at offset %d", t.text, t.pos), Expr: expr}
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// binding powers: + - (10), * / (20), ** (30, right-assoc).
func bindingPower(k tokenKind) (int, bool) {
	switch k {
	case tokPlus, tokMinus:
		return 10, false
	case tokStar, tokSlash:
		return 20, false
	case tokPow:
		return 30, true
	}
	return 0, false
}

func (p *parser) parseExpr(minBP int) (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		bp, rightAssoc := bindingPower(t.kind)
		if bp == 0 || bp < minBP {
			return left, nil
		}
		p.next()
		nextMin := bp + 1
		if rightAssoc {
			nextMin = bp
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &binNode{op: t.kind, l: left, r: right}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &Error{Kind: ErrKindSyntax, Msg: fmt.Sprintf("bad number %q", t.text), Expr: p.expr}
		}
		return &numNode{val: v}, nil
	case tokIdent:
		// Ident followed by '(' is call syntax; there is no function whitelist.
		if p.peek().kind == tokLParen {
			return nil, &Error{Kind: ErrKindUnsafe, Msg: fmt.Sprintf("function call %q is not allowed", t.text), Expr: p.expr}
		}
		return &identNode{name: t.text}, nil
	case tokMinus:
		operand, err := p.parseExpr(25) // binds tighter than * but looser than **
		if err != nil {
			return nil, err
		}
		return &unaryNode{operand: operand}, nil
	case tokPlus:
		return p.parseExpr(25)
	case tokLParen:
		n, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, &Error{Kind: ErrKindSyntax, Msg: "missing closing parenthesis", Expr: p.expr}
		}
		p.next()
		return n, nil
	case tokEOF:
		return nil, &Error{Kind: ErrKindSyntax, Msg: "unexpected end of expression", Expr: p.expr}
	default:
		return nil, &Error{Kind: ErrKindSyntax, Msg: fmt.Sprintf("unexpected %q at offset %d", t.text, t.pos), Expr: p.expr}
	}
}

// Structural introspection --------------------------------------------------------

type collector struct {
	vars     map[string]bool
	literals []float64
}

// Vars returns the distinct identifiers referenced by the expression, sorted.
func Vars(n Node) []string {
	c := &collector{vars: map[string]bool{}}
	n.collect(c)
	out := make([]string, 0, len(c.vars))
	for v := range c.vars {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Literals returns every numeric literal appearing in the expression.
func Literals(n Node) []float64 {
	c := &collector{vars: map[string]bool{}}
	n.collect(c)
	return c.literals
}

// MaxVarDegree returns the maximum polynomial degree in the expression:
// 0 for constants, 1 for linear, 2 for products of two variables or squared
// terms. Expressions that are not polynomial in their variables (division by a
// variable, variable exponents, fractional powers) report degree -1.
func MaxVarDegree(n Node) int {
	d, poly := degree(n)
	if !poly {
		return -1
	}
	return d
}

// degree computes the polynomial degree of a subtree; the bool is false when
// the subtree is not polynomial in its variables.
func degree(n Node) (int, bool) {
	switch x := n.(type) {
	case *numNode:
		return 0, true
	case *identNode:
		return 1, true
	case *unaryNode:
		return degree(x.operand)
	case *binNode:
		dl, okl := degree(x.l)
		dr, okr := degree(x.r)
		if !okl || !okr {
			return 0, false
		}
		switch x.op {
		case tokPlus, tokMinus:
			if dl > dr {
				return dl, true
			}
			return dr, true
		case tokStar:
			return dl + dr, true
		case tokSlash:
			if dr > 0 {
				return 0, false // dividing by a variable
			}
			return dl, true
		case tokPow:
			if dr > 0 {
				return 0, false // variable exponent
			}
			num, ok := x.r.(*numNode)
			if !ok {
				// Constant subtree that is not a bare literal (e.g. x**(1+1));
				// treat conservatively as non-polynomial.
				return 0, false
			}
			exp := num.val
			if exp != math.Trunc(exp) || exp < 0 {
				return 0, false
			}
			return dl * int(exp), true
		}
	}
	return 0, false
}

func (n *numNode) collect(c *collector) { c.literals = append(c.literals, n.val) }

func (n *identNode) collect(c *collector) { c.vars[n.name] = true }

func (n *unaryNode) collect(c *collector) { n.operand.collect(c) }

func (n *binNode) collect(c *collector) {
	n.l.collect(c)
	n.r.collect(c)
}

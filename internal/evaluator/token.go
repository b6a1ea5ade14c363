package evaluator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex scans an arithmetic expression into tokens. Only numeric literals,
// ident-like names, + - * / ** and parentheses are admitted; any other rune is
// an UnsafeExpression error. Relational operators never reach the lexer: a
// constraint is split at its top-level relation before either side is parsed.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i += w
		case r == '+':
			toks = append(toks, token{tokPlus, "+", i})
			i++
		case r == '-':
			toks = append(toks, token{tokMinus, "-", i})
			i++
		case r == '*':
			if i+1 < len(src) && src[i+1] == '*' {
				toks = append(toks, token{tokPow, "**", i})
				i += 2
			} else {
				toks = append(toks, token{tokStar, "*", i})
				i++
			}
		case r == '/':
			toks = append(toks, token{tokSlash, "/", i})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == '^':
			// Common alternate power spelling from LLM output.
			toks = append(toks, token{tokPow, "**", i})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(src) {
				c := src[i]
				if c >= '0' && c <= '9' {
					i++
					continue
				}
				if c == '.' && !seenDot {
					seenDot = true
					i++
					continue
				}
				// Scientific notation: 1e-6, 2.5E+3.
				if (c == 'e' || c == 'E') && i+1 < len(src) && isExpTail(src[i+1:]) {
					i++
					if src[i] == '+' || src[i] == '-' {
						i++
					}
					for i < len(src) && src[i] >= '0' && src[i] <= '9' {
						i++
					}
				}
				break
			}
			toks = append(toks, token{tokNumber, src[start:i], start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			i += w
			for i < len(src) {
				rc, wc := utf8.DecodeRuneInString(src[i:])
				if rc != '_' && !unicode.IsLetter(rc) && !unicode.IsDigit(rc) {
					break
				}
				i += wc
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			return nil, &Error{
				Kind: ErrKindUnsafe,
				Msg:  fmt.Sprintf("disallowed character %q at offset %d", r, i),
				Expr: src,
			}
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func isExpTail(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// RelOp is one of the allowed relational operators of a constraint.
type RelOp string

const (
	OpLE RelOp = "<="
	OpGE RelOp = ">="
	OpEQ RelOp = "="
)

// SplitRelation splits a constraint expression at its single top-level
// relational operator. "==" is accepted as a spelling of "=". Zero or more
// than one relational operator is a syntax error; "<" or ">" alone is an
// unsafe construct (strict inequalities are not part of the model language).
func SplitRelation(expr string) (lhs string, op RelOp, rhs string, err error) {
	type hit struct {
		pos int
		op  RelOp
		len int
	}
	var hits []hit
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '<':
			if i+1 < len(expr) && expr[i+1] == '=' {
				hits = append(hits, hit{i, OpLE, 2})
				i++
			} else {
				return "", "", "", &Error{Kind: ErrKindUnsafe, Msg: "strict inequality < is not supported", Expr: expr}
			}
		case '>':
			if i+1 < len(expr) && expr[i+1] == '=' {
				hits = append(hits, hit{i, OpGE, 2})
				i++
			} else {
				return "", "", "", &Error{Kind: ErrKindUnsafe, Msg: "strict inequality > is not supported", Expr: expr}
			}
		case '=':
			n := 1
			if i+1 < len(expr) && expr[i+1] == '=' {
				n = 2
			}
			hits = append(hits, hit{i, OpEQ, n})
			i += n - 1
		case '!':
			return "", "", "", &Error{Kind: ErrKindUnsafe, Msg: "operator != is not supported", Expr: expr}
		}
	}
	if len(hits) == 0 {
		return "", "", "", &Error{Kind: ErrKindSyntax, Msg: "no relational operator found", Expr: expr}
	}
	if len(hits) > 1 {
		return "", "", "", &Error{Kind: ErrKindSyntax, Msg: "multiple relational operators found", Expr: expr}
	}
	h := hits[0]
	lhs = strings.TrimSpace(expr[:h.pos])
	rhs = strings.TrimSpace(expr[h.pos+h.len:])
	if lhs == "" || rhs == "" {
		return "", "", "", &Error{Kind: ErrKindSyntax, Msg: "relational operator missing an operand", Expr: expr}
	}
	return lhs, h.op, rhs, nil
}

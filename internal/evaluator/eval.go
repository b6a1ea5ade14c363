// Package evaluator parses and evaluates the restricted arithmetic expression
// language used by model constraints and objectives. The grammar admits
// numeric literals, variable identifiers, + - * / ** and parentheses, nothing
// else; evaluation substitutes bound values and never delegates to a
// general-purpose interpreter. All functions are pure and safe for concurrent
// use.
package evaluator

import (
	"fmt"
	"math"
)

// ErrKind classifies evaluator failures so callers can branch on them as
// ordinary control flow.
type ErrKind string

const (
	ErrKindUnsafe  ErrKind = "UnsafeExpression"
	ErrKindUnbound ErrKind = "UnboundVariable"
	ErrKindSyntax  ErrKind = "SyntaxError"
	ErrKindDomain  ErrKind = "DomainError"
)

// Error is a structured evaluator failure.
type Error struct {
	Kind ErrKind
	Msg  string
	Expr string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (in %q)", e.Kind, e.Msg, e.Expr)
}

// KindOf returns the evaluator error kind, or "" for foreign errors.
func KindOf(err error) ErrKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}

// Evaluate parses expr and computes its value under the given bindings.
func Evaluate(expr string, bindings map[string]float64) (float64, error) {
	n, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	return n.eval(bindings, expr)
}

// EvaluateNode computes a previously parsed expression. Useful when the same
// expression is evaluated against many bindings.
func EvaluateNode(n Node, bindings map[string]float64) (float64, error) {
	return n.eval(bindings, "")
}

// Relation is the evaluated form of a constraint under one binding.
type Relation struct {
	LHS       float64
	Op        RelOp
	RHS       float64
	Satisfied bool
	// Residual is how far the relation is from holding, scaled by
	// max(1, |rhs|); zero when satisfied exactly.
	Residual float64
}

// EvaluateRelation splits a constraint at its relational operator, evaluates
// both sides, and reports satisfaction within the given relative tolerance.
func EvaluateRelation(expr string, bindings map[string]float64, tol float64) (Relation, error) {
	lhsStr, op, rhsStr, err := SplitRelation(expr)
	if err != nil {
		return Relation{}, err
	}
	lhs, err := Evaluate(lhsStr, bindings)
	if err != nil {
		return Relation{}, err
	}
	rhs, err := Evaluate(rhsStr, bindings)
	if err != nil {
		return Relation{}, err
	}
	scale := math.Max(1, math.Abs(rhs))
	slack := tol * scale
	rel := Relation{LHS: lhs, Op: op, RHS: rhs}
	switch op {
	case OpLE:
		rel.Satisfied = lhs <= rhs+slack
		rel.Residual = math.Max(0, lhs-rhs) / scale
	case OpGE:
		rel.Satisfied = lhs >= rhs-slack
		rel.Residual = math.Max(0, rhs-lhs) / scale
	case OpEQ:
		rel.Satisfied = math.Abs(lhs-rhs) <= slack
		rel.Residual = math.Abs(lhs-rhs) / scale
	}
	return rel, nil
}

// eval implementations ------------------------------------------------------------

func (n *numNode) eval(_ map[string]float64, _ string) (float64, error) {
	return n.val, nil
}

func (n *identNode) eval(bindings map[string]float64, expr string) (float64, error) {
	v, ok := bindings[n.name]
	if !ok {
		return 0, &Error{Kind: ErrKindUnbound, Msg: fmt.Sprintf("variable %q has no bound value", n.name), Expr: expr}
	}
	return v, nil
}

func (n *unaryNode) eval(bindings map[string]float64, expr string) (float64, error) {
	v, err := n.operand.eval(bindings, expr)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n *binNode) eval(bindings map[string]float64, expr string) (float64, error) {
	l, err := n.l.eval(bindings, expr)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(bindings, expr)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	case tokSlash:
		if r == 0 {
			return 0, &Error{Kind: ErrKindDomain, Msg: "division by zero", Expr: expr}
		}
		return l / r, nil
	case tokPow:
		v := math.Pow(l, r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &Error{Kind: ErrKindDomain, Msg: fmt.Sprintf("%g ** %g is not finite", l, r), Expr: expr}
		}
		return v, nil
	}
	return 0, &Error{Kind: ErrKindSyntax, Msg: "unknown operator", Expr: expr}
}

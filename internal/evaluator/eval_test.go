package evaluator

import (
	"testing"

	"optimind/internal/tester"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	cases := []struct {
		expr string
		bind map[string]float64
		want float64
	}{
		{"2 + 3 * 4", nil, 14},
		{"(2 + 3) * 4", nil, 20},
		{"10 - 2 - 3", nil, 5},
		{"2 ** 3 ** 2", nil, 512}, // right associative
		{"2 ^ 10", nil, 1024},
		{"-x + 5", map[string]float64{"x": 2}, 3},
		{"40*x1 + 30*x2", map[string]float64{"x1": 30, "x2": 20}, 1800},
		{"1.5e2 / 3", nil, 50},
		{"x / y", map[string]float64{"x": 7, "y": 2}, 3.5},
	}
	for _, c := range cases {
		got, err := Evaluate(c.expr, c.bind)
		tester.NoErr(t, err, c.expr)
		tester.InDelta(t, got, c.want, 1e-12, c.expr)
	}
}

func TestEvaluate_RejectsUnsafeInput(t *testing.T) {
	for _, expr := range []string{
		"exec('rm -rf')",
		"sqrt(x)",
		"x; y",
		"x & y",
		"x < y",
		"a ! b",
	} {
		_, err := Evaluate(expr, map[string]float64{"x": 1, "y": 1})
		tester.True(t, err != nil, expr)
		tester.Eq(t, KindOf(err), ErrKindUnsafe, expr)
	}
}

func TestEvaluate_SyntaxErrors(t *testing.T) {
	for _, expr := range []string{"2 +", "(x + 1", "* 3", ""} {
		_, err := Evaluate(expr, nil)
		tester.True(t, err != nil, expr)
		tester.Eq(t, KindOf(err), ErrKindSyntax, expr)
	}
}

func TestEvaluate_UnboundVariable(t *testing.T) {
	_, err := Evaluate("x + y", map[string]float64{"x": 1})
	tester.Eq(t, KindOf(err), ErrKindUnbound)
}

func TestEvaluate_DomainErrors(t *testing.T) {
	_, err := Evaluate("1 / (x - x)", map[string]float64{"x": 3})
	tester.Eq(t, KindOf(err), ErrKindDomain, "division by zero")

	_, err = Evaluate("(0 - 1) ** 0.5", nil)
	tester.Eq(t, KindOf(err), ErrKindDomain, "non-finite power")
}

func TestSplitRelation(t *testing.T) {
	lhs, op, rhs, err := SplitRelation("2*x1 + 3*x2 <= 120")
	tester.NoErr(t, err)
	tester.Eq(t, op, OpLE)
	tester.Eq(t, lhs, "2*x1 + 3*x2")
	tester.Eq(t, rhs, "120")

	_, op, _, err = SplitRelation("x == 1")
	tester.NoErr(t, err, "== normalizes to =")
	tester.Eq(t, op, OpEQ)

	_, _, _, err = SplitRelation("x + 1")
	tester.Eq(t, KindOf(err), ErrKindSyntax, "no relation")

	_, _, _, err = SplitRelation("x <= 1 <= 2")
	tester.Eq(t, KindOf(err), ErrKindSyntax, "chained relation")

	_, _, _, err = SplitRelation("x < 1")
	tester.Eq(t, KindOf(err), ErrKindUnsafe, "strict inequality")
}

func TestEvaluateRelation_Tolerance(t *testing.T) {
	bind := map[string]float64{"x": 0.97}

	rel, err := EvaluateRelation("x = 1", bind, 0.01)
	tester.NoErr(t, err)
	tester.False(t, rel.Satisfied, "3% off must fail at 1% tolerance")
	tester.InDelta(t, rel.Residual, 0.03, 1e-9)

	rel, err = EvaluateRelation("x = 1", map[string]float64{"x": 0.995}, 0.01)
	tester.NoErr(t, err)
	tester.True(t, rel.Satisfied, "0.5% off passes at 1% tolerance")

	// Slack scales with max(1, |rhs|): 1001 <= 1000 holds at 1%.
	rel, err = EvaluateRelation("y <= 1000", map[string]float64{"y": 1001}, 0.01)
	tester.NoErr(t, err)
	tester.True(t, rel.Satisfied)

	rel, err = EvaluateRelation("y <= 1000", map[string]float64{"y": 1020}, 0.01)
	tester.NoErr(t, err)
	tester.False(t, rel.Satisfied)
}

func TestVarsAndDegree(t *testing.T) {
	n, err := Parse("3*z + x*y + x")
	tester.NoErr(t, err)
	tester.Eq(t, Vars(n), []string{"x", "y", "z"}, "sorted distinct variables")
	tester.Eq(t, MaxVarDegree(n), 2, "x*y is bilinear")

	lin, err := Parse("2*x + 3*y - 7")
	tester.NoErr(t, err)
	tester.Eq(t, MaxVarDegree(lin), 1)

	cube, err := Parse("x ** 3")
	tester.NoErr(t, err)
	tester.Eq(t, MaxVarDegree(cube), 3)

	frac, err := Parse("x ** 0.5")
	tester.NoErr(t, err)
	tester.Eq(t, MaxVarDegree(frac), -1, "non-integer exponent is not polynomial")

	div, err := Parse("1 / x")
	tester.NoErr(t, err)
	tester.Eq(t, MaxVarDegree(div), -1, "variable in divisor is not polynomial")

	half, err := Parse("x / 2")
	tester.NoErr(t, err)
	tester.Eq(t, MaxVarDegree(half), 1, "constant divisor stays linear")
}

func TestLiterals(t *testing.T) {
	n, err := Parse("2*x + 0.5*y - 1e7")
	tester.NoErr(t, err)
	tester.Eq(t, len(Literals(n)), 3)
}

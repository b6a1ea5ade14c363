package validate

import (
	"math"

	"optimind/internal/evaluator"
	"optimind/internal/types"
)

// Validator holds the tunable bands and the business rule registry. The zero
// value is not usable; construct with NewValidator.
type Validator struct {
	// MinCoeff/MaxCoeff bound the absolute magnitude of non-zero literal
	// coefficients considered numerically stable.
	MinCoeff float64
	MaxCoeff float64
	// Tolerance is the relative tolerance for solution checks.
	Tolerance float64

	rules []Rule
}

// NewValidator returns a validator with the default stability band
// [1e-6, 1e6], 1% relative tolerance, and the built-in business rules.
func NewValidator() *Validator {
	return &Validator{
		MinCoeff:  1e-6,
		MaxCoeff:  1e6,
		Tolerance: 0.01,
		rules:     builtinRules(),
	}
}

// Register adds a business rule to the registry. Rules are consulted in
// registration order during solution validation.
func (v *Validator) Register(r Rule) { v.rules = append(v.rules, r) }

// Spec checks a draft ModelSpec for internal consistency before any solve
// attempt. All checks run; findings are aggregated into one report.
func (v *Validator) Spec(spec types.ModelSpec) types.ValidationReport {
	b := &reportBuilder{}

	declared := map[string]types.Variable{}
	for _, vr := range spec.Variables {
		declared[vr.Name] = vr
	}

	// Bounds are normally guarded by NewVariable, but decoded or hand-built
	// specs can bypass it.
	for _, vr := range spec.Variables {
		if math.IsNaN(vr.LowerBound) || math.IsNaN(vr.UpperBound) ||
			math.IsInf(vr.LowerBound, 0) || math.IsInf(vr.UpperBound, 0) {
			b.add(types.CategoryMathematical, "variable %s: bounds must be finite", vr.Name)
			continue
		}
		if vr.LowerBound > vr.UpperBound {
			b.add(types.CategoryMathematical, "variable %s: lower bound %g exceeds upper bound %g",
				vr.Name, vr.LowerBound, vr.UpperBound)
		}
	}

	if len(spec.Constraints) == 0 && spec.Objective.Expression == "" {
		b.add(types.CategoryMathematical, "model has no constraints and no objective")
		return b.build()
	}

	used := map[string]bool{}
	maxDegree := 0

	// Per-constraint structural checks; parse failures are findings, not errors.
	var parsed []parsedConstraint
	for i, con := range spec.Constraints {
		lhsStr, op, rhsStr, err := evaluator.SplitRelation(con.Expression)
		if err != nil {
			b.add(types.CategoryMathematical, "constraint %d (%q): %v", i, con.Expression, err)
			continue
		}
		lhs, err := evaluator.Parse(lhsStr)
		if err != nil {
			b.add(types.CategoryMathematical, "constraint %d (%q): %v", i, con.Expression, err)
			continue
		}
		rhs, err := evaluator.Parse(rhsStr)
		if err != nil {
			b.add(types.CategoryMathematical, "constraint %d (%q): %v", i, con.Expression, err)
			continue
		}
		var conVars []string
		for _, node := range []evaluator.Node{lhs, rhs} {
			for _, name := range evaluator.Vars(node) {
				if _, ok := declared[name]; !ok {
					b.add(types.CategoryMathematical, "constraint %d references undeclared variable %s", i, name)
				}
				used[name] = true
				conVars = append(conVars, name)
			}
			v.checkLiterals(b, node, "constraint", i)
			if d := evaluator.MaxVarDegree(node); d > maxDegree {
				maxDegree = d
			}
		}
		parsed = append(parsed, parsedConstraint{idx: i, vars: conVars, lhs: lhs, op: op, rhs: rhs})
	}

	// Objective checks.
	if spec.Objective.Expression != "" {
		obj, err := evaluator.Parse(spec.Objective.Expression)
		if err != nil {
			b.add(types.CategoryMathematical, "objective (%q): %v", spec.Objective.Expression, err)
		} else {
			for _, name := range evaluator.Vars(obj) {
				if _, ok := declared[name]; !ok {
					b.add(types.CategoryMathematical, "objective references undeclared variable %s", name)
				}
				used[name] = true
			}
			v.checkLiterals(b, obj, "objective", -1)
			if d := evaluator.MaxVarDegree(obj); d > maxDegree {
				maxDegree = d
			}
		}
		switch spec.Objective.Sense {
		case types.Minimize, types.Maximize:
		default:
			b.add(types.CategoryMathematical, "objective sense %q is not minimize or maximize", spec.Objective.Sense)
		}
	} else {
		b.add(types.CategoryMathematical, "objective expression is empty")
	}

	// Every variable must appear in at least one constraint or the objective.
	for _, vr := range spec.Variables {
		if !used[vr.Name] {
			b.add(types.CategoryMathematical, "variable %s is never used", vr.Name)
		}
	}

	v.checkContradictions(b, spec, parsed)
	v.checkTypeConsistency(b, spec, maxDegree)

	return b.build()
}

// checkLiterals flags non-zero literal magnitudes outside the stable band.
func (v *Validator) checkLiterals(b *reportBuilder, node evaluator.Node, where string, idx int) {
	for _, lit := range evaluator.Literals(node) {
		abs := math.Abs(lit)
		if abs == 0 {
			continue
		}
		if abs < v.MinCoeff || abs > v.MaxCoeff {
			if idx >= 0 {
				b.add(types.CategoryStability, "%s %d: coefficient %g outside stable range [%g, %g]",
					where, idx, lit, v.MinCoeff, v.MaxCoeff)
			} else {
				b.add(types.CategoryStability, "%s: coefficient %g outside stable range [%g, %g]",
					where, lit, v.MinCoeff, v.MaxCoeff)
			}
		}
	}
}

// checkContradictions looks for pairs of single-variable constraints whose
// implied intervals cannot intersect, e.g. "x <= 5" with "x >= 10". Only
// constraints linear in their lone variable participate.
func (v *Validator) checkContradictions(b *reportBuilder, spec types.ModelSpec, parsed []parsedConstraint) {
	type interval struct {
		lo, hi float64
	}
	perVar := map[string][]interval{}
	for _, pc := range parsed {
		names := distinct(pc.vars)
		if len(names) != 1 {
			continue
		}
		name := names[0]
		lo, hi, ok := impliedInterval(pc.lhs, pc.op, pc.rhs, name)
		if !ok {
			continue
		}
		perVar[name] = append(perVar[name], interval{lo: lo, hi: hi})
	}
	for name, ivs := range perVar {
		lo := math.Inf(-1)
		hi := math.Inf(1)
		for _, iv := range ivs {
			lo = math.Max(lo, iv.lo)
			hi = math.Min(hi, iv.hi)
		}
		if lo > hi {
			b.add(types.CategoryConstraint,
				"constraints on variable %s are contradictory: implied range [%g, %g] is empty", name, lo, hi)
		}
	}
}

// checkTypeConsistency cross-checks the declared model type against variable
// kinds and expression shape.
func (v *Validator) checkTypeConsistency(b *reportBuilder, spec types.ModelSpec, maxDegree int) {
	if spec.ModelType == "" {
		return
	}
	discrete := false
	for _, vr := range spec.Variables {
		if vr.Kind != types.VarContinuous {
			discrete = true
			break
		}
	}
	if discrete && !spec.ModelType.AllowsDiscrete() {
		b.add(types.CategoryMathematical,
			"model type %q is inconsistent with integer/binary variables", spec.ModelType)
	}
	if maxDegree > 1 && (spec.ModelType == types.ModelLinear || spec.ModelType == types.ModelMixedIntegerLinear) {
		b.add(types.CategoryMathematical,
			"model type %q is inconsistent with nonlinear expressions (degree %d)", spec.ModelType, maxDegree)
	}
}

// parsedConstraint mirrors the local struct in Spec; declared at package scope
// for checkContradictions' signature.
type parsedConstraint struct {
	idx  int
	vars []string
	lhs  evaluator.Node
	op   evaluator.RelOp
	rhs  evaluator.Node
}

// impliedInterval solves a constraint linear in one variable into the
// interval it implies for that variable.
func impliedInterval(lhs evaluator.Node, op evaluator.RelOp, rhs evaluator.Node, name string) (lo, hi float64, ok bool) {
	// Evaluate f(x) = lhs(x) - rhs(x) at two points; linearity gives
	// f(x) = a*x + c with a = f(1)-f(0), c = f(0).
	f := func(x float64) (float64, bool) {
		bind := map[string]float64{name: x}
		l, err := evaluator.EvaluateNode(lhs, bind)
		if err != nil {
			return 0, false
		}
		r, err := evaluator.EvaluateNode(rhs, bind)
		if err != nil {
			return 0, false
		}
		return l - r, true
	}
	if evaluator.MaxVarDegree(lhs) > 1 || evaluator.MaxVarDegree(rhs) > 1 {
		return 0, 0, false
	}
	f0, ok0 := f(0)
	f1, ok1 := f(1)
	if !ok0 || !ok1 {
		return 0, 0, false
	}
	a := f1 - f0
	c := f0
	if a == 0 {
		return 0, 0, false
	}
	boundary := -c / a
	lo, hi = math.Inf(-1), math.Inf(1)
	switch op {
	case evaluator.OpLE: // a*x + c <= 0
		if a > 0 {
			hi = boundary
		} else {
			lo = boundary
		}
	case evaluator.OpGE: // a*x + c >= 0
		if a > 0 {
			lo = boundary
		} else {
			hi = boundary
		}
	case evaluator.OpEQ:
		lo, hi = boundary, boundary
	}
	return lo, hi, true
}

func distinct(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

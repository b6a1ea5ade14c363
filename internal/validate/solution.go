package validate

import (
	"math"

	"optimind/internal/evaluator"
	"optimind/internal/types"
)

// Solution validates a solver result against its spec. Every check runs and
// the findings are aggregated into one report; a business-logic failure never
// suppresses the mathematical checks. Downstream consumers must refuse to
// proceed unless the returned report has Passed=true.
func (v *Validator) Solution(spec types.ModelSpec, sol types.Solution) types.ValidationReport {
	b := &reportBuilder{}

	switch sol.Status {
	case types.StatusOptimal, types.StatusFeasible:
	case types.StatusInfeasible:
		b.add(types.CategoryMathematical, "solver reported the model infeasible")
	case types.StatusError:
		b.add(types.CategoryMathematical, "solver reported an error status")
	default:
		b.add(types.CategoryMathematical, "solver reported unknown status %q", sol.Status)
	}

	// Coverage: one value per declared variable, no extras.
	for _, vr := range spec.Variables {
		if _, ok := sol.VariableValues[vr.Name]; !ok {
			b.add(types.CategoryMathematical, "solution is missing a value for variable %s", vr.Name)
		}
	}
	for name := range sol.VariableValues {
		if _, ok := spec.Variable(name); !ok {
			b.add(types.CategoryMathematical, "solution carries a value for undeclared variable %s", name)
		}
	}

	// Bounds and integrality.
	for _, vr := range spec.Variables {
		val, ok := sol.VariableValues[vr.Name]
		if !ok {
			continue
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			b.add(types.CategoryMathematical, "variable %s has non-finite value", vr.Name)
			continue
		}
		slackLo := v.Tolerance * math.Max(1, math.Abs(vr.LowerBound))
		slackHi := v.Tolerance * math.Max(1, math.Abs(vr.UpperBound))
		if val < vr.LowerBound-slackLo || val > vr.UpperBound+slackHi {
			b.add(types.CategoryMathematical, "variable %s = %g violates bounds [%g, %g]",
				vr.Name, val, vr.LowerBound, vr.UpperBound)
		}
		if vr.Kind != types.VarContinuous && math.Abs(val-math.Round(val)) > v.Tolerance {
			b.add(types.CategoryMathematical, "variable %s = %g is not integral", vr.Name, val)
		}
	}

	// Constraint satisfaction under the reported values.
	for i, con := range spec.Constraints {
		rel, err := evaluator.EvaluateRelation(con.Expression, sol.VariableValues, v.Tolerance)
		if err != nil {
			b.add(types.CategoryConstraint, "constraint %d (%q): %v", i, con.Expression, err)
			continue
		}
		if !rel.Satisfied {
			b.add(types.CategoryConstraint, "constraint %d (%q) violated: %g %s %g (residual %.4f)",
				i, con.Expression, rel.LHS, rel.Op, rel.RHS, rel.Residual)
		}
	}

	// Objective recomputation within relative tolerance.
	if spec.Objective.Expression != "" {
		recomputed, err := evaluator.Evaluate(spec.Objective.Expression, sol.VariableValues)
		if err != nil {
			b.add(types.CategoryMathematical, "objective (%q): %v", spec.Objective.Expression, err)
		} else {
			scale := math.Max(1, math.Abs(recomputed))
			if math.Abs(recomputed-sol.ObjectiveValue) > v.Tolerance*scale {
				b.add(types.CategoryMathematical,
					"reported objective %g does not match recomputed %g within %.1f%%",
					sol.ObjectiveValue, recomputed, v.Tolerance*100)
			}
		}
	}

	// Business rules; an unmatched shape is flagged, not passed vacuously.
	matched := false
	for _, rule := range v.rules {
		if !rule.Applies(spec) {
			continue
		}
		matched = true
		b.violations = append(b.violations, rule.Check(v, spec, sol)...)
	}
	if !matched {
		b.advisory(types.CategoryBusiness, "no applicable rule for this problem shape")
	}

	return b.build()
}

package validate

import (
	"math"
	"strconv"
	"strings"

	"optimind/internal/evaluator"
	"optimind/internal/types"
)

// Rule is one domain-aware consistency check. Applies decides from the spec's
// shape whether the rule is relevant; Check runs against the solution and
// returns findings. Rules are pattern-matched from names, descriptions, and
// constraint structure rather than a fixed taxonomy, so new problem shapes
// are added by registering a rule, not by editing the validator.
type Rule struct {
	Name    string
	Applies func(spec types.ModelSpec) bool
	Check   func(v *Validator, spec types.ModelSpec, sol types.Solution) []types.Violation
}

func builtinRules() []Rule {
	return []Rule{allocationSumRule(), allocationNonNegativeRule(), productionCapacityRule()}
}

// allocation keyword markers checked against variable names and descriptions.
var allocationMarkers = []string{"share", "alloc", "weight", "fraction", "proportion", "portfolio"}

// isAllocationShaped recognizes specs whose variables are shares of a single
// resource: all continuous in [0,1], and either described with allocation
// vocabulary or tied together by a full-sum constraint equal to 1.
func isAllocationShaped(spec types.ModelSpec) bool {
	if len(spec.Variables) == 0 {
		return false
	}
	for _, vr := range spec.Variables {
		if vr.Kind != types.VarContinuous || vr.LowerBound < 0 || vr.UpperBound > 1 {
			return false
		}
	}
	if fullSumConstraint(spec) >= 0 {
		return true
	}
	for _, vr := range spec.Variables {
		text := strings.ToLower(vr.Name + " " + vr.Description)
		for _, marker := range allocationMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}

// fullSumConstraint returns the index of a constraint of the form
// x1+x2+...+xn = 1 covering every variable, or -1.
func fullSumConstraint(spec types.ModelSpec) int {
	for i, con := range spec.Constraints {
		lhsStr, op, rhsStr, err := evaluator.SplitRelation(con.Expression)
		if err != nil || op != evaluator.OpEQ {
			continue
		}
		rhs, err := evaluator.Evaluate(rhsStr, nil)
		if err != nil || rhs != 1 {
			continue
		}
		lhs, err := evaluator.Parse(lhsStr)
		if err != nil {
			continue
		}
		if len(evaluator.Vars(lhs)) != len(spec.Variables) {
			continue
		}
		// All ones: evaluating with every variable at 1 must give n.
		ones := map[string]float64{}
		for _, vr := range spec.Variables {
			ones[vr.Name] = 1
		}
		sum, err := evaluator.EvaluateNode(lhs, ones)
		if err != nil || sum != float64(len(spec.Variables)) {
			continue
		}
		return i
	}
	return -1
}

// allocationSumRule: share-style variables must sum to 1 within tolerance.
func allocationSumRule() Rule {
	return Rule{
		Name:    "allocation-sum",
		Applies: isAllocationShaped,
		Check: func(v *Validator, spec types.ModelSpec, sol types.Solution) []types.Violation {
			total := 0.0
			for _, vr := range spec.Variables {
				total += sol.VariableValues[vr.Name]
			}
			if math.Abs(total-1) > v.Tolerance {
				return []types.Violation{{
					Category: types.CategoryBusiness,
					Message: "allocation variables sum to " + trimFloat(total) +
						", expected 1 within tolerance",
				}}
			}
			return nil
		},
	}
}

// allocationNonNegativeRule: an allocation-style variable may not go negative
// unless its declared bounds explicitly permit it.
func allocationNonNegativeRule() Rule {
	return Rule{
		Name:    "allocation-non-negative",
		Applies: isAllocationShaped,
		Check: func(v *Validator, spec types.ModelSpec, sol types.Solution) []types.Violation {
			var out []types.Violation
			for _, vr := range spec.Variables {
				val := sol.VariableValues[vr.Name]
				if vr.LowerBound >= 0 && val < -v.Tolerance {
					out = append(out, types.Violation{
						Category: types.CategoryBusiness,
						Message:  "allocation variable " + vr.Name + " is negative: " + trimFloat(val),
					})
				}
			}
			return out
		},
	}
}

// productionCapacityRule recognizes production/staffing plans (quantity-style
// variables with upper-bounded sum constraints) and checks that no quantity
// is negative, the usual sign error in hallucinated plans.
func productionCapacityRule() Rule {
	markers := []string{"unit", "produce", "production", "staff", "worker", "shift", "quantity", "inventory"}
	return Rule{
		Name: "production-non-negative",
		Applies: func(spec types.ModelSpec) bool {
			if isAllocationShaped(spec) {
				return false
			}
			for _, vr := range spec.Variables {
				text := strings.ToLower(vr.Name + " " + vr.Description)
				for _, marker := range markers {
					if strings.Contains(text, marker) {
						return true
					}
				}
			}
			return false
		},
		Check: func(v *Validator, spec types.ModelSpec, sol types.Solution) []types.Violation {
			var out []types.Violation
			for _, vr := range spec.Variables {
				val := sol.VariableValues[vr.Name]
				if vr.LowerBound >= 0 && val < -v.Tolerance {
					out = append(out, types.Violation{
						Category: types.CategoryBusiness,
						Message:  "quantity variable " + vr.Name + " is negative: " + trimFloat(val),
					})
				}
			}
			return out
		},
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

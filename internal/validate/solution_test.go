package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optimind/internal/types"
)

func portfolioSpec(t *testing.T) types.ModelSpec {
	t.Helper()
	return types.ModelSpec{
		Variables: []types.Variable{
			mustVar(t, "w1", types.VarContinuous, 0, 1),
			mustVar(t, "w2", types.VarContinuous, 0, 1),
			mustVar(t, "w3", types.VarContinuous, 0, 1),
			mustVar(t, "w4", types.VarContinuous, 0, 1),
		},
		Constraints: []types.Constraint{
			{Expression: "w1 + w2 + w3 + w4 = 1", Description: "fully invested"},
		},
		Objective: types.Objective{
			Sense:      types.Maximize,
			Expression: "0.08*w1 + 0.12*w2 + 0.05*w3 + 0.1*w4",
		},
	}
}

func portfolioSolution(vals map[string]float64) types.Solution {
	obj := 0.08*vals["w1"] + 0.12*vals["w2"] + 0.05*vals["w3"] + 0.1*vals["w4"]
	return types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: obj,
		VariableValues: vals,
		Backend:        "glop",
	}
}

func TestSolution_PortfolioSumViolation(t *testing.T) {
	// Weights sum to 0.97: both the equality constraint and the allocation
	// rule must flag it at 1% tolerance.
	spec := portfolioSpec(t)
	sol := portfolioSolution(map[string]float64{"w1": 0.4, "w2": 0.3, "w3": 0.17, "w4": 0.1})

	r := NewValidator().Solution(spec, sol)
	assert.False(t, r.Passed)
	assert.NotEmpty(t, findCategory(r, types.CategoryConstraint))
	assert.NotEmpty(t, findCategory(r, types.CategoryBusiness))
}

func TestSolution_PortfolioExactSumPasses(t *testing.T) {
	spec := portfolioSpec(t)
	sol := portfolioSolution(map[string]float64{"w1": 0.4, "w2": 0.3, "w3": 0.2, "w4": 0.1})

	r := NewValidator().Solution(spec, sol)
	assert.True(t, r.Passed, "violations: %v", r.Violations)
}

func TestSolution_PerturbationFlipsChecks(t *testing.T) {
	spec := portfolioSpec(t)
	good := map[string]float64{"w1": 0.4, "w2": 0.3, "w3": 0.2, "w4": 0.1}
	v := NewValidator()
	require.True(t, v.Solution(spec, portfolioSolution(good)).Passed)

	perturbed := map[string]float64{"w1": 0.4, "w2": 0.3, "w3": 0.2, "w4": 0.15}
	r := v.Solution(spec, portfolioSolution(perturbed))
	assert.False(t, r.Passed, "a 5-point bump must break the equality")
}

func TestSolution_BoundsAndIntegrality(t *testing.T) {
	spec := types.ModelSpec{
		Variables: []types.Variable{
			mustVar(t, "n", types.VarInteger, 0, 10),
		},
		Constraints: []types.Constraint{{Expression: "n <= 10"}},
		Objective:   types.Objective{Sense: types.Maximize, Expression: "n"},
	}
	v := NewValidator()

	r := v.Solution(spec, types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 4.5,
		VariableValues: map[string]float64{"n": 4.5},
	})
	assert.False(t, r.Passed, "fractional value for an integer variable")

	r = v.Solution(spec, types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 12,
		VariableValues: map[string]float64{"n": 12},
	})
	assert.False(t, r.Passed, "value above the upper bound")
}

func TestSolution_CoverageBothDirections(t *testing.T) {
	spec := productionSpec(t)
	v := NewValidator()

	r := v.Solution(spec, types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 1200,
		VariableValues: map[string]float64{"x1": 30}, // x2 missing
	})
	assert.False(t, r.Passed)

	r = v.Solution(spec, types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 1800,
		VariableValues: map[string]float64{"x1": 30, "x2": 20, "x9": 1},
	})
	assert.False(t, r.Passed, "undeclared variable in the solution")
}

func TestSolution_ObjectiveMismatch(t *testing.T) {
	spec := productionSpec(t)
	sol := types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 9999, // recomputed is 1800
		VariableValues: map[string]float64{"x1": 30, "x2": 20},
	}
	r := NewValidator().Solution(spec, sol)
	assert.False(t, r.Passed)
}

func TestSolution_InfeasibleStatus(t *testing.T) {
	spec := productionSpec(t)
	r := NewValidator().Solution(spec, types.Solution{
		Status:         types.StatusInfeasible,
		VariableValues: map[string]float64{"x1": 0, "x2": 0},
	})
	assert.False(t, r.Passed)
}

func TestSolution_UnmatchedShapeIsAdvisory(t *testing.T) {
	// A spec with no allocation or production vocabulary matches no business
	// rule; the report notes that as an advisory finding but still passes.
	spec := types.ModelSpec{
		Variables:   []types.Variable{mustVar(t, "y", types.VarContinuous, 0, 100)},
		Constraints: []types.Constraint{{Expression: "y <= 100"}},
		Objective:   types.Objective{Sense: types.Minimize, Expression: "y"},
	}
	r := NewValidator().Solution(spec, types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 0,
		VariableValues: map[string]float64{"y": 0},
	})
	assert.True(t, r.Passed)
	advisories := 0
	for _, v := range r.Violations {
		if v.Advisory {
			advisories++
		}
	}
	assert.Equal(t, 1, advisories)
	assert.Less(t, r.Confidence, 1.0)
}

func TestSolution_CustomRuleRegistration(t *testing.T) {
	v := NewValidator()
	v.Register(Rule{
		Name:    "always-applies",
		Applies: func(types.ModelSpec) bool { return true },
		Check: func(_ *Validator, _ types.ModelSpec, sol types.Solution) []types.Violation {
			if sol.ObjectiveValue < 0 {
				return []types.Violation{{Category: types.CategoryBusiness, Message: "negative objective"}}
			}
			return nil
		},
	})
	spec := productionSpec(t)
	r := v.Solution(spec, types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: -5,
		VariableValues: map[string]float64{"x1": 0, "x2": 0},
	})
	assert.False(t, r.Passed)

	found := false
	for _, viol := range r.Violations {
		if viol.Message == "negative objective" {
			found = true
		}
	}
	assert.True(t, found)
}

package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optimind/internal/types"
)

func TestNormalize_LinearModel(t *testing.T) {
	m, err := Normalize(linearSpec(t))
	require.NoError(t, err)

	assert.True(t, m.Maximize)
	assert.Equal(t, []string{"x1", "x2"}, m.Names)
	assert.Equal(t, []float64{40, 30}, m.ColCosts)
	assert.Equal(t, 0.0, m.Offset)
	assert.Empty(t, m.Hessian)

	require.Len(t, m.RowLower, 2)
	assert.True(t, math.IsInf(m.RowLower[0], -1))
	assert.Equal(t, 120.0, m.RowUpper[0])
	assert.Equal(t, 50.0, m.RowUpper[1])

	// Sparse entries row-major: 2*x1, 3*x2, then 1*x1, 1*x2.
	assert.Equal(t, []Nonzero{
		{Row: 0, Col: 0, Val: 2},
		{Row: 0, Col: 1, Val: 3},
		{Row: 1, Col: 0, Val: 1},
		{Row: 1, Col: 1, Val: 1},
	}, m.ConstMatrix)
}

func TestNormalize_RowSenses(t *testing.T) {
	spec := linearSpec(t)
	spec.Constraints = []types.Constraint{
		{Expression: "x1 >= 5"},
		{Expression: "x1 + x2 = 10"},
		{Expression: "x1 - 3 <= x2"}, // variables on both sides
	}
	m, err := Normalize(spec)
	require.NoError(t, err)

	assert.Equal(t, 5.0, m.RowLower[0])
	assert.True(t, math.IsInf(m.RowUpper[0], 1))

	assert.Equal(t, 10.0, m.RowLower[1])
	assert.Equal(t, 10.0, m.RowUpper[1])

	// x1 - x2 <= 3 after moving everything left.
	assert.Equal(t, 3.0, m.RowUpper[2])
	assert.Contains(t, m.ConstMatrix, Nonzero{Row: 2, Col: 0, Val: 1})
	assert.Contains(t, m.ConstMatrix, Nonzero{Row: 2, Col: 1, Val: -1})
}

func TestNormalize_QuadraticObjective(t *testing.T) {
	spec := types.ModelSpec{
		Variables: []types.Variable{
			mustVar(t, "x", types.VarContinuous, 0, 10),
			mustVar(t, "y", types.VarContinuous, 0, 10),
		},
		Constraints: []types.Constraint{{Expression: "x + y <= 10"}},
		Objective:   types.Objective{Sense: types.Minimize, Expression: "x**2 + 4*x*y + 3*x + 7"},
	}
	m, err := Normalize(spec)
	require.NoError(t, err)

	assert.Equal(t, 7.0, m.Offset)
	assert.InDelta(t, 3.0, m.ColCosts[0], 1e-9)
	assert.InDelta(t, 0.0, m.ColCosts[1], 1e-9)
	// 0.5 x'Hx form: H_xx = 2 for x**2, H_xy = 4 for the cross term.
	assert.Contains(t, m.Hessian, Nonzero{Row: 0, Col: 0, Val: 2})
	assert.Contains(t, m.Hessian, Nonzero{Row: 0, Col: 1, Val: 4})
}

func TestNormalize_RejectsNonlinearConstraint(t *testing.T) {
	spec := linearSpec(t)
	spec.Constraints[0].Expression = "x1*x2 <= 10"

	_, err := Normalize(spec)
	var ne *NormalizeError
	require.True(t, errors.As(err, &ne))
	assert.Contains(t, ne.Error(), "not linear")
}

func TestNormalize_RejectsCubicObjective(t *testing.T) {
	spec := linearSpec(t)
	spec.Objective.Expression = "x1**3"

	_, err := Normalize(spec)
	var ne *NormalizeError
	require.True(t, errors.As(err, &ne))
}

func TestStaticBackend(t *testing.T) {
	b := &StaticBackend{
		BackendName: "canned",
		Result:      types.Solution{Status: types.StatusOptimal, ObjectiveValue: 42},
	}
	sol, err := b.Solve(context.Background(), &NormalizedModel{})
	require.NoError(t, err)
	assert.Equal(t, "canned", sol.Backend)
	assert.Equal(t, 42.0, sol.ObjectiveValue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Solve(ctx, &NormalizedModel{})
	assert.Error(t, err)
}

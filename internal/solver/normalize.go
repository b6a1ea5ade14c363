package solver

import (
	"fmt"
	"math"

	"optimind/internal/evaluator"
	"optimind/internal/types"
)

// Nonzero is one entry of a sparse matrix.
type Nonzero struct {
	Row int
	Col int
	Val float64
}

// NormalizedModel is the coefficient form handed to a solver backend:
//
//	minimize (or maximize)  ColCosts·x + Offset + 0.5 x' H x
//	subject to              RowLower <= A·x <= RowUpper
//	and                     ColLower <= x <= ColUpper
//
// A is given by ConstMatrix, H by the upper-triangular Hessian. Translating
// expressions into this form is the solve-orchestration boundary; the
// validator never sees it.
type NormalizedModel struct {
	Maximize    bool
	Offset      float64
	Names       []string
	ColCosts    []float64
	ColLower    []float64
	ColUpper    []float64
	RowLower    []float64
	RowUpper    []float64
	ConstMatrix []Nonzero
	Hessian     []Nonzero
	VarTypes    []types.VarKind
}

// NormalizeError reports an expression that cannot be put in coefficient
// form, e.g. a nonlinear constraint handed to a linear backend path.
type NormalizeError struct {
	Where string
	Msg   string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Where, e.Msg)
}

// Normalize translates a validated spec into coefficient form. Constraints
// must be linear; the objective may be linear or quadratic. Degrees beyond
// that produce a NormalizeError, matching the capability matrix's
// quadratic-objective boundary.
func Normalize(spec types.ModelSpec) (*NormalizedModel, error) {
	n := len(spec.Variables)
	m := &NormalizedModel{
		Maximize: spec.Objective.Sense == types.Maximize,
		Names:    make([]string, n),
		ColCosts: make([]float64, n),
		ColLower: make([]float64, n),
		ColUpper: make([]float64, n),
		VarTypes: make([]types.VarKind, n),
	}
	for i, vr := range spec.Variables {
		m.Names[i] = vr.Name
		m.ColLower[i] = vr.LowerBound
		m.ColUpper[i] = vr.UpperBound
		m.VarTypes[i] = vr.Kind
	}

	// Objective: linear part by first differences, quadratic part by second
	// differences. Exact for polynomials of degree <= 2.
	objNode, err := evaluator.Parse(spec.Objective.Expression)
	if err != nil {
		return nil, &NormalizeError{Where: "objective", Msg: err.Error()}
	}
	objDeg := evaluator.MaxVarDegree(objNode)
	if objDeg < 0 || objDeg > 2 {
		return nil, &NormalizeError{Where: "objective", Msg: fmt.Sprintf("degree %d is beyond quadratic", objDeg)}
	}
	at := func(node evaluator.Node, where string, coords map[int]float64) (float64, error) {
		bind := make(map[string]float64, n)
		for _, name := range m.Names {
			bind[name] = 0
		}
		for col, val := range coords {
			bind[m.Names[col]] = val
		}
		v, err := evaluator.EvaluateNode(node, bind)
		if err != nil {
			return 0, &NormalizeError{Where: where, Msg: err.Error()}
		}
		return v, nil
	}
	f0, err := at(objNode, "objective", nil)
	if err != nil {
		return nil, err
	}
	m.Offset = f0
	if objDeg <= 1 {
		for col := range m.Names {
			fi, err := at(objNode, "objective", map[int]float64{col: 1})
			if err != nil {
				return nil, err
			}
			m.ColCosts[col] = fi - f0
		}
	} else {
		// Quadratic: f(x) = f0 + c·x + 0.5 x'Hx with
		// H_ii = f(2e_i) - 2f(e_i) + f0 and
		// H_ij = f(e_i+e_j) - f(e_i) - f(e_j) + f0 (i < j),
		// then c_i = f(e_i) - f0 - 0.5*H_ii.
		fi := make([]float64, n)
		for col := range m.Names {
			v, err := at(objNode, "objective", map[int]float64{col: 1})
			if err != nil {
				return nil, err
			}
			fi[col] = v
		}
		for i := 0; i < n; i++ {
			f2i, err := at(objNode, "objective", map[int]float64{i: 2})
			if err != nil {
				return nil, err
			}
			hii := f2i - 2*fi[i] + f0
			if hii != 0 {
				m.Hessian = append(m.Hessian, Nonzero{Row: i, Col: i, Val: hii})
			}
			m.ColCosts[i] = fi[i] - f0 - 0.5*hii
			for j := i + 1; j < n; j++ {
				fij, err := at(objNode, "objective", map[int]float64{i: 1, j: 1})
				if err != nil {
					return nil, err
				}
				hij := fij - fi[i] - fi[j] + f0
				if hij != 0 {
					m.Hessian = append(m.Hessian, Nonzero{Row: i, Col: j, Val: hij})
				}
			}
		}
	}

	// Constraints: lhs - rhs must be linear; row bounds come from the
	// relational operator.
	for rowIdx, con := range spec.Constraints {
		where := fmt.Sprintf("constraint %d (%q)", rowIdx, con.Expression)
		lhsStr, op, rhsStr, err := evaluator.SplitRelation(con.Expression)
		if err != nil {
			return nil, &NormalizeError{Where: where, Msg: err.Error()}
		}
		lhs, err := evaluator.Parse(lhsStr)
		if err != nil {
			return nil, &NormalizeError{Where: where, Msg: err.Error()}
		}
		rhs, err := evaluator.Parse(rhsStr)
		if err != nil {
			return nil, &NormalizeError{Where: where, Msg: err.Error()}
		}
		if evaluator.MaxVarDegree(lhs) > 1 || evaluator.MaxVarDegree(rhs) > 1 ||
			evaluator.MaxVarDegree(lhs) < 0 || evaluator.MaxVarDegree(rhs) < 0 {
			return nil, &NormalizeError{Where: where, Msg: "constraint is not linear"}
		}
		g := func(coords map[int]float64) (float64, error) {
			l, err := at(lhs, where, coords)
			if err != nil {
				return 0, err
			}
			r, err := at(rhs, where, coords)
			if err != nil {
				return 0, err
			}
			return l - r, nil
		}
		g0, err := g(nil)
		if err != nil {
			return nil, err
		}
		for col := range m.Names {
			gi, err := g(map[int]float64{col: 1})
			if err != nil {
				return nil, err
			}
			if coef := gi - g0; coef != 0 {
				m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: rowIdx, Col: col, Val: coef})
			}
		}
		// Row form: a·x in [lo, hi] with a·x + g0 relating to 0.
		lo, hi := math.Inf(-1), math.Inf(1)
		switch op {
		case evaluator.OpLE:
			hi = -g0
		case evaluator.OpGE:
			lo = -g0
		case evaluator.OpEQ:
			lo, hi = -g0, -g0
		}
		m.RowLower = append(m.RowLower, lo)
		m.RowUpper = append(m.RowUpper, hi)
	}
	return m, nil
}

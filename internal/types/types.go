package types

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Variable kinds ------------------------------------------------------------------

type VarKind string

const (
	VarContinuous VarKind = "continuous"
	VarInteger    VarKind = "integer"
	VarBinary     VarKind = "binary"
)

// Variable is a single decision variable. Values are immutable after creation;
// a revision produces a new Variable.
type Variable struct {
	Name        string  `json:"name"`
	Kind        VarKind `json:"kind"`
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
	Description string  `json:"description,omitempty"`
}

// NewVariable builds a Variable, normalizing binary bounds to [0,1].
// Inverted or non-finite bounds are rejected here; the validator re-checks them
// on decoded specs that bypass this constructor.
func NewVariable(name string, kind VarKind, lo, hi float64, desc string) (Variable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Variable{}, fmt.Errorf("variable name is required")
	}
	switch kind {
	case VarContinuous, VarInteger, VarBinary:
	default:
		return Variable{}, fmt.Errorf("variable %s: unknown kind %q", name, kind)
	}
	if kind == VarBinary {
		lo, hi = 0, 1
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Variable{}, fmt.Errorf("variable %s: bounds must be finite", name)
	}
	if lo > hi {
		return Variable{}, fmt.Errorf("variable %s: lower bound %g exceeds upper bound %g", name, lo, hi)
	}
	return Variable{Name: name, Kind: kind, LowerBound: lo, UpperBound: hi, Description: desc}, nil
}

// Constraint holds a relational expression of the form "lhs <op> rhs",
// op in {<=, >=, =}. Every identifier must name a Variable in the owning spec.
type Constraint struct {
	Expression  string `json:"expression"`
	Description string `json:"description,omitempty"`
}

// Objective sense -----------------------------------------------------------------

type Sense string

const (
	Minimize Sense = "minimize"
	Maximize Sense = "maximize"
)

type Objective struct {
	Sense       Sense  `json:"sense"`
	Expression  string `json:"expression"`
	Description string `json:"description,omitempty"`
}

// ModelSpec is the structured representation of an optimization problem.
// It is frozen once handed to the solver selector.
type ModelSpec struct {
	Variables   []Variable   `json:"variables"`
	Constraints []Constraint `json:"constraints"`
	Objective   Objective    `json:"objective"`
	ModelType   ModelType    `json:"model_type,omitempty"`
	Complexity  Complexity   `json:"complexity,omitempty"`
}

// Variable returns the variable with the given name, if present.
func (s ModelSpec) Variable(name string) (Variable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// VariableNames returns the declared variable names in declaration order.
func (s ModelSpec) VariableNames() []string {
	out := make([]string, 0, len(s.Variables))
	for _, v := range s.Variables {
		out = append(out, v.Name)
	}
	return out
}

// Solution ------------------------------------------------------------------------

type SolveStatus string

const (
	StatusOptimal    SolveStatus = "optimal"
	StatusFeasible   SolveStatus = "feasible"
	StatusInfeasible SolveStatus = "infeasible"
	StatusError      SolveStatus = "error"
)

// Solution is produced by a solver backend and consumed read-only.
type Solution struct {
	Status         SolveStatus        `json:"status"`
	ObjectiveValue float64            `json:"objective_value"`
	VariableValues map[string]float64 `json:"variable_values"`
	SolveTime      time.Duration      `json:"solve_time"`
	Backend        string             `json:"backend,omitempty"`
}

// Validation ----------------------------------------------------------------------

type ViolationCategory string

const (
	CategoryMathematical ViolationCategory = "mathematical"
	CategoryConstraint   ViolationCategory = "constraint"
	CategoryBusiness     ViolationCategory = "business-logic"
	CategoryStability    ViolationCategory = "numerical-stability"
)

// Violation is a single structured validation finding. Advisory findings are
// carried in the report but do not flip it to failed.
type Violation struct {
	Category ViolationCategory `json:"category"`
	Message  string            `json:"message"`
	Advisory bool              `json:"advisory,omitempty"`
}

// ValidationReport aggregates all findings of one validator invocation.
// Invalidity is data: validators never raise on invalid input.
type ValidationReport struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
	Confidence float64     `json:"confidence"`
}

// Failed returns the non-advisory violations.
func (r ValidationReport) Failed() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if !v.Advisory {
			out = append(out, v)
		}
	}
	return out
}

// Summary renders the failed findings as a single corrective-feedback line.
func (r ValidationReport) Summary() string {
	if r.Passed {
		return "ok"
	}
	var b strings.Builder
	for i, v := range r.Failed() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(string(v.Category))
		b.WriteString(": ")
		b.WriteString(v.Message)
	}
	return b.String()
}

// FormulationFailure --------------------------------------------------------------

// FormulationFailure is returned when the formulation retry budget is exhausted
// without producing a spec that passes validation.
type FormulationFailure struct {
	Attempts   int
	LastReport ValidationReport
	LastErr    error
}

func (f *FormulationFailure) Error() string {
	if f.LastErr != nil {
		return fmt.Sprintf("formulation failed after %d attempts: %v", f.Attempts, f.LastErr)
	}
	return fmt.Sprintf("formulation failed after %d attempts: model validation failed: %s",
		f.Attempts, f.LastReport.Summary())
}

func (f *FormulationFailure) Unwrap() error { return f.LastErr }

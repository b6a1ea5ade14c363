package solver

import (
	"fmt"
	"sort"

	"optimind/internal/types"
)

// Capability describes what one solver backend supports and how it performs
// relative to the others. The matrix is static: backends are external engines
// whose abilities do not change at runtime.
type Capability struct {
	Name         string
	Integer      bool // integer/binary variables
	QuadraticObj bool // quadratic objective or constraints
	Nonlinear    bool // general nonlinear expressions
	MaxSize      int  // variables + constraints; 0 means unlimited
	Rating       int  // higher is preferred among compatible backends
}

// DefaultCapabilities is the shipped backend matrix, modeled on the usual
// open-source engine lineup.
func DefaultCapabilities() []Capability {
	return []Capability{
		{Name: "highs", Integer: true, QuadraticObj: true, MaxSize: 200000, Rating: 90},
		{Name: "cbc", Integer: true, MaxSize: 100000, Rating: 70},
		{Name: "glop", Integer: false, MaxSize: 500000, Rating: 80},
		{Name: "osqp", Integer: false, QuadraticObj: true, MaxSize: 100000, Rating: 75},
		{Name: "scip", Integer: true, QuadraticObj: true, Nonlinear: true, MaxSize: 50000, Rating: 60},
		{Name: "ipopt", Integer: false, QuadraticObj: true, Nonlinear: true, MaxSize: 50000, Rating: 55},
	}
}

// Choice is the selector's answer: a primary backend plus compatible
// fallbacks in descending rating order.
type Choice struct {
	Primary   Capability   `json:"primary"`
	Fallbacks []Capability `json:"fallbacks,omitempty"`
	Profile   Profile      `json:"profile"`
}

// NoCompatibleSolverError reports that no backend in the matrix supports the
// problem class. It is a typed result, never a guess.
type NoCompatibleSolverError struct {
	Profile Profile
}

func (e *NoCompatibleSolverError) Error() string {
	return fmt.Sprintf("no compatible solver for %s/%s problem with %d variables and %d constraints",
		e.Profile.VarClass, e.Profile.Linearity, e.Profile.Variables, e.Profile.Constraints)
}

// Selector ranks backends from a capability matrix.
type Selector struct {
	matrix []Capability
}

// NewSelector builds a selector; a nil or empty matrix uses the default one.
func NewSelector(matrix []Capability) *Selector {
	if len(matrix) == 0 {
		matrix = DefaultCapabilities()
	}
	return &Selector{matrix: matrix}
}

// Select classifies the spec and returns the highest-rated compatible backend
// plus ordered fallbacks, or a NoCompatibleSolverError.
func (s *Selector) Select(spec types.ModelSpec) (Choice, error) {
	profile := Classify(spec)
	var compatible []Capability
	for _, c := range s.matrix {
		if supports(c, profile) {
			compatible = append(compatible, c)
		}
	}
	if len(compatible) == 0 {
		return Choice{}, &NoCompatibleSolverError{Profile: profile}
	}
	sort.SliceStable(compatible, func(i, j int) bool {
		if compatible[i].Rating != compatible[j].Rating {
			return compatible[i].Rating > compatible[j].Rating
		}
		return compatible[i].Name < compatible[j].Name
	})
	return Choice{
		Primary:   compatible[0],
		Fallbacks: compatible[1:],
		Profile:   profile,
	}, nil
}

func supports(c Capability, p Profile) bool {
	if p.VarClass != VarsContinuous && !c.Integer {
		return false
	}
	switch p.Linearity {
	case ShapeQuadratic:
		if !c.QuadraticObj && !c.Nonlinear {
			return false
		}
	case ShapeNonlinear:
		if !c.Nonlinear {
			return false
		}
	}
	if c.MaxSize > 0 && p.Size() > c.MaxSize {
		return false
	}
	return true
}

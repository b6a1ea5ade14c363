// Package solver classifies validated models, ranks solver backends by
// fitness, and translates the string-expression model form into the
// coefficient form a numerical engine consumes.
package solver

import (
	"optimind/internal/evaluator"
	"optimind/internal/types"
)

// VarClass summarizes the variable kinds of a spec.
type VarClass string

const (
	VarsContinuous VarClass = "continuous"
	VarsMixed      VarClass = "mixed-integer"
	VarsBinary     VarClass = "binary-heavy"
)

// Linearity is the structural shape of the objective and constraints.
type Linearity string

const (
	ShapeLinear    Linearity = "linear"
	ShapeQuadratic Linearity = "quadratic"
	ShapeNonlinear Linearity = "nonlinear"
)

// Profile captures everything the selector needs to rank backends.
type Profile struct {
	VarClass    VarClass  `json:"var_class"`
	Linearity   Linearity `json:"linearity"`
	Variables   int       `json:"variables"`
	Constraints int       `json:"constraints"`
}

// Size returns the combined problem size used against backend limits.
func (p Profile) Size() int { return p.Variables + p.Constraints }

// Classify derives the structural profile of a spec. Expressions that fail to
// parse are treated as nonlinear; the validator has already reported them,
// classification just needs a conservative answer.
func Classify(spec types.ModelSpec) Profile {
	p := Profile{Variables: len(spec.Variables), Constraints: len(spec.Constraints)}

	binary, discrete := 0, 0
	for _, vr := range spec.Variables {
		switch vr.Kind {
		case types.VarBinary:
			binary++
			discrete++
		case types.VarInteger:
			discrete++
		}
	}
	switch {
	case discrete == 0:
		p.VarClass = VarsContinuous
	case binary*2 >= len(spec.Variables):
		p.VarClass = VarsBinary
	default:
		p.VarClass = VarsMixed
	}

	maxDegree := 0
	bump := func(expr string) {
		n, err := evaluator.Parse(expr)
		if err != nil {
			maxDegree = 99
			return
		}
		d := evaluator.MaxVarDegree(n)
		if d < 0 {
			maxDegree = 99
			return
		}
		if d > maxDegree {
			maxDegree = d
		}
	}
	if spec.Objective.Expression != "" {
		bump(spec.Objective.Expression)
	}
	for _, con := range spec.Constraints {
		lhs, _, rhs, err := evaluator.SplitRelation(con.Expression)
		if err != nil {
			maxDegree = 99
			continue
		}
		bump(lhs)
		bump(rhs)
	}
	switch {
	case maxDegree <= 1:
		p.Linearity = ShapeLinear
	case maxDegree == 2:
		p.Linearity = ShapeQuadratic
	default:
		p.Linearity = ShapeNonlinear
	}
	return p
}

// DeriveModelType computes the spec's model-type tag from its profile.
func DeriveModelType(spec types.ModelSpec) types.ModelType {
	p := Classify(spec)
	switch p.Linearity {
	case ShapeLinear:
		if p.VarClass == VarsContinuous {
			return types.ModelLinear
		}
		return types.ModelMixedIntegerLinear
	case ShapeQuadratic:
		return types.ModelQuadratic
	default:
		return types.ModelOther
	}
}

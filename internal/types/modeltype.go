package types

// ModelType is a derived tag describing the problem class of a ModelSpec.
// Derivation lives in internal/solver (it needs the expression AST); the tag is
// stored here so a decoded spec can carry whatever the backend declared and the
// validator can cross-check it.
type ModelType string

const (
	ModelLinear             ModelType = "linear"
	ModelMixedIntegerLinear ModelType = "mixed-integer-linear"
	ModelQuadratic          ModelType = "quadratic"
	ModelOther              ModelType = "other"
)

// AllowsDiscrete reports whether the model type admits integer/binary variables.
func (m ModelType) AllowsDiscrete() bool {
	switch m {
	case ModelMixedIntegerLinear, ModelOther:
		return true
	}
	return false
}

// Complexity is a coarse size estimate used for solver ranking and logging.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// EstimateComplexity buckets a spec by variable x constraint volume.
func EstimateComplexity(nVars, nConstraints int) Complexity {
	size := nVars * max(nConstraints, 1)
	switch {
	case size <= 50:
		return ComplexityLow
	case size <= 2500:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

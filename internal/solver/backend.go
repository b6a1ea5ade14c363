package solver

import (
	"context"

	"optimind/internal/types"
)

// Backend runs a normalized model through a numerical engine. Implementations
// wrap external processes or services; the pipeline only sees the interface.
type Backend interface {
	Name() string
	Solve(ctx context.Context, model *NormalizedModel) (types.Solution, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc struct {
	BackendName string
	Fn          func(ctx context.Context, model *NormalizedModel) (types.Solution, error)
}

func (b BackendFunc) Name() string { return b.BackendName }

func (b BackendFunc) Solve(ctx context.Context, model *NormalizedModel) (types.Solution, error) {
	return b.Fn(ctx, model)
}

// StaticBackend returns a fixed solution regardless of input. Used by the demo
// binary and tests, where the interesting behavior is validation of the result
// rather than the numerics behind it.
type StaticBackend struct {
	BackendName string
	Result      types.Solution
}

func (b *StaticBackend) Name() string { return b.BackendName }

func (b *StaticBackend) Solve(ctx context.Context, model *NormalizedModel) (types.Solution, error) {
	if err := ctx.Err(); err != nil {
		return types.Solution{}, err
	}
	sol := b.Result
	sol.Backend = b.BackendName
	return sol, nil
}

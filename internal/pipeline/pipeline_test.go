package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"optimind/internal/formulate"
	"optimind/internal/llm"
	"optimind/internal/solver"
	"optimind/internal/tester"
	"optimind/internal/types"
	"optimind/internal/validate"
)

// optimal corner of the canned production model served by llm.FakeClient.
func cannedOptimum() types.Solution {
	return types.Solution{
		Status:         types.StatusOptimal,
		ObjectiveValue: 1800,
		VariableValues: map[string]float64{"x1": 30, "x2": 20},
		SolveTime:      time.Millisecond,
	}
}

func newTestPipeline(backends map[string]solver.Backend) *Pipeline {
	v := validate.NewValidator()
	f := formulate.New(llm.NewFakeClient(), nil, v)
	return New(f, solver.NewSelector(nil), v, backends)
}

func TestRun_EndToEndVerified(t *testing.T) {
	backends := map[string]solver.Backend{
		"highs": &solver.StaticBackend{BackendName: "highs", Result: cannedOptimum()},
	}
	p := newTestPipeline(backends)

	out, err := p.Run(context.Background(), "plan production of two products")
	tester.NoErr(t, err)
	tester.Eq(t, out.Stage, StageVerify)
	tester.True(t, out.SolutionReport.Passed, out.SolutionReport.Summary())

	spec, sol, err := out.Verified()
	tester.NoErr(t, err)
	tester.Eq(t, len(spec.Variables), 2)
	tester.Eq(t, sol.ObjectiveValue, 1800.0)
	tester.Eq(t, sol.Backend, "highs")
}

func TestRun_TamperedSolutionIsWithheld(t *testing.T) {
	bogus := cannedOptimum()
	bogus.ObjectiveValue = 99999 // does not match the recomputed objective
	backends := map[string]solver.Backend{
		"highs": &solver.StaticBackend{BackendName: "highs", Result: bogus},
	}
	p := newTestPipeline(backends)

	out, err := p.Run(context.Background(), "plan production")
	tester.NoErr(t, err, "the run completes; the gate is in Verified")
	tester.False(t, out.SolutionReport.Passed)

	_, _, err = out.Verified()
	var unverified *UnverifiedSolutionError
	tester.True(t, errors.As(err, &unverified))
	tester.False(t, unverified.Report.Passed)
}

func TestRun_FallbackBackendServes(t *testing.T) {
	failing := solver.BackendFunc{
		BackendName: "highs",
		Fn: func(ctx context.Context, m *solver.NormalizedModel) (types.Solution, error) {
			return types.Solution{}, errors.New("license expired")
		},
	}
	backends := map[string]solver.Backend{
		"highs": failing,
		"glop":  &solver.StaticBackend{BackendName: "glop", Result: cannedOptimum()},
	}
	p := newTestPipeline(backends)

	out, err := p.Run(context.Background(), "plan production")
	tester.NoErr(t, err)
	_, sol, err := out.Verified()
	tester.NoErr(t, err)
	tester.Eq(t, sol.Backend, "glop")
}

func TestRun_NoBackendRegistered(t *testing.T) {
	p := newTestPipeline(nil)
	out, err := p.Run(context.Background(), "plan production")
	tester.ErrIs(t, err, ErrNoBackend)
	tester.Eq(t, out.Stage, StageSolve)
}

func TestRun_FormulationFailureStopsEarly(t *testing.T) {
	v := validate.NewValidator()
	f := formulate.New(&refusingLLM{}, nil, v, formulate.WithMaxAttempts(2))
	p := New(f, solver.NewSelector(nil), v, nil)

	out, err := p.Run(context.Background(), "plan production")
	tester.True(t, err != nil)
	tester.Eq(t, out.Stage, StageFormulate)

	var failure *types.FormulationFailure
	tester.True(t, errors.As(err, &failure))
}

type refusingLLM struct{}

func (r *refusingLLM) Name() string { return "refusing" }
func (r *refusingLLM) Close() error { return nil }
func (r *refusingLLM) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	return json.RawMessage("no JSON here"), nil
}

func TestOutcome_VerifiedBeforeVerifyStage(t *testing.T) {
	out := &Outcome{Stage: StageSelect}
	_, _, err := out.Verified()
	var unverified *UnverifiedSolutionError
	tester.True(t, errors.As(err, &unverified))
}

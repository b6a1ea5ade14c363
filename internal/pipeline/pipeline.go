// Package pipeline wires formulation, solver selection, solving and result
// verification into one flow with a hard gate at the end: callers get a
// solution only together with a passing post-solve report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"optimind/internal/formulate"
	"optimind/internal/solver"
	"optimind/internal/types"
	"optimind/internal/validate"
)

// Stage names the pipeline step an outcome (or its failure) belongs to.
type Stage string

const (
	StageFormulate Stage = "formulate"
	StageSelect    Stage = "select"
	StageNormalize Stage = "normalize"
	StageSolve     Stage = "solve"
	StageVerify    Stage = "verify"
)

// ErrNoBackend means the selector's choice matched none of the registered
// backend implementations.
var ErrNoBackend = errors.New("no registered backend for selected solver")

// UnverifiedSolutionError is returned by Outcome.Verified when the post-solve
// report did not pass. The solution stays inside the outcome for inspection
// but is withheld from the verified path.
type UnverifiedSolutionError struct {
	Report types.ValidationReport
}

func (e *UnverifiedSolutionError) Error() string {
	return "solution failed verification: " + e.Report.Summary()
}

// Outcome is everything the pipeline produced, including artifacts of stages
// that ran before a failure.
type Outcome struct {
	Stage          Stage                  `json:"stage"`
	Problem        string                 `json:"problem"`
	Spec           types.ModelSpec        `json:"spec"`
	Choice         solver.Choice          `json:"choice"`
	Solution       types.Solution         `json:"solution"`
	SolutionReport types.ValidationReport `json:"solution_report"`
}

// Verified returns the spec and solution only when the post-solve report
// passed; otherwise it returns an UnverifiedSolutionError. This is the one
// supported way to consume a pipeline result.
func (o *Outcome) Verified() (types.ModelSpec, types.Solution, error) {
	if o.Stage != StageVerify || !o.SolutionReport.Passed {
		return types.ModelSpec{}, types.Solution{}, &UnverifiedSolutionError{Report: o.SolutionReport}
	}
	return o.Spec, o.Solution, nil
}

// Archiver persists finished outcomes. Archival is best-effort: failures are
// logged and never affect the returned result.
type Archiver interface {
	Archive(ctx context.Context, o *Outcome) error
}

// Pipeline runs problems end to end.
type Pipeline struct {
	formulator   *formulate.Formulator
	selector     *solver.Selector
	validator    *validate.Validator
	backends     map[string]solver.Backend
	solveTimeout time.Duration
	archiver     Archiver
	log          *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSolveTimeout bounds each backend solve call.
func WithSolveTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.solveTimeout = d
		}
	}
}

// WithArchiver enables best-effort outcome archival.
func WithArchiver(a Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New assembles a pipeline. backends maps solver names from the capability
// matrix to concrete implementations; names without an implementation are
// skipped at solve time.
func New(f *formulate.Formulator, sel *solver.Selector, v *validate.Validator, backends map[string]solver.Backend, opts ...Option) *Pipeline {
	p := &Pipeline{
		formulator:   f,
		selector:     sel,
		validator:    v,
		backends:     backends,
		solveTimeout: 5 * time.Minute,
		log:          log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run takes a problem description through formulation, selection, solving and
// verification. The returned outcome records how far the run got; err is
// non-nil whenever the outcome did not reach a completed verification stage.
func (p *Pipeline) Run(ctx context.Context, problemText string) (*Outcome, error) {
	out := &Outcome{Stage: StageFormulate, Problem: problemText}

	spec, err := p.formulator.Formulate(ctx, problemText)
	if err != nil {
		return out, fmt.Errorf("formulate: %w", err)
	}
	out.Spec = spec

	out.Stage = StageSelect
	choice, err := p.selector.Select(spec)
	if err != nil {
		return out, fmt.Errorf("select: %w", err)
	}
	out.Choice = choice
	p.log.Printf("pipeline: selected %s (%s/%s, %d fallbacks)",
		choice.Primary.Name, choice.Profile.VarClass, choice.Profile.Linearity, len(choice.Fallbacks))

	out.Stage = StageNormalize
	model, err := solver.Normalize(spec)
	if err != nil {
		return out, fmt.Errorf("normalize: %w", err)
	}

	out.Stage = StageSolve
	sol, err := p.solve(ctx, choice, model)
	if err != nil {
		return out, fmt.Errorf("solve: %w", err)
	}
	out.Solution = sol

	out.Stage = StageVerify
	out.SolutionReport = p.validator.Solution(spec, sol)
	if !out.SolutionReport.Passed {
		p.log.Printf("pipeline: verification failed: %s", out.SolutionReport.Summary())
	}

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, out); err != nil {
			p.log.Printf("pipeline: archive failed (continuing): %v", err)
		}
	}
	return out, nil
}

// solve tries the primary backend, then the fallbacks in rating order.
func (p *Pipeline) solve(ctx context.Context, choice solver.Choice, model *solver.NormalizedModel) (types.Solution, error) {
	ranked := append([]solver.Capability{choice.Primary}, choice.Fallbacks...)
	var lastErr error
	for _, c := range ranked {
		backend, ok := p.backends[c.Name]
		if !ok {
			continue
		}
		solveCtx, cancel := context.WithTimeout(ctx, p.solveTimeout)
		started := time.Now()
		sol, err := backend.Solve(solveCtx, model)
		cancel()
		if err != nil {
			p.log.Printf("pipeline: backend %s failed, trying next: %v", c.Name, err)
			lastErr = err
			continue
		}
		if sol.SolveTime == 0 {
			sol.SolveTime = time.Since(started)
		}
		if sol.Backend == "" {
			sol.Backend = backend.Name()
		}
		return sol, nil
	}
	if lastErr != nil {
		return types.Solution{}, lastErr
	}
	return types.Solution{}, ErrNoBackend
}

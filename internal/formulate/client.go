// Package formulate turns natural-language problem descriptions into
// validated model specs. The LLM is untrusted: every generated spec passes
// through structural validation, failed attempts feed their findings back
// into the next prompt, and only a spec that validates is ever returned.
package formulate

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"time"

	"optimind/internal/cache/memory"
	"optimind/internal/jsonutil"
	"optimind/internal/knowledge"
	llmclient "optimind/internal/llmClient"
	"optimind/internal/solver"
	"optimind/internal/types"
	"optimind/internal/validate"
)

const (
	defaultMaxAttempts = 3
	defaultExemplars   = 3
	defaultCacheSize   = 256
	defaultCacheTTL    = time.Hour
)

// Formulator orchestrates retrieval, generation, validation and caching.
type Formulator struct {
	client      llmclient.LLMClient
	retriever   *knowledge.Retriever
	validator   *validate.Validator
	cache       *memory.LRUTTL[uint64, types.ModelSpec]
	maxAttempts int
	exemplars   int
	log         *log.Logger
}

// Option configures a Formulator.
type Option func(*Formulator)

// WithMaxAttempts bounds the generate-validate loop.
func WithMaxAttempts(n int) Option {
	return func(f *Formulator) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithExemplarCount sets how many retrieved exemplars go into the prompt.
func WithExemplarCount(k int) Option {
	return func(f *Formulator) {
		if k >= 0 {
			f.exemplars = k
		}
	}
}

// WithCache replaces the default formulation cache, e.g. to change its bound
// or TTL. A nil cache disables caching.
func WithCache(c *memory.LRUTTL[uint64, types.ModelSpec]) Option {
	return func(f *Formulator) { f.cache = c }
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Formulator) { f.log = l }
}

// New builds a Formulator. retriever may be nil when no corpus is available;
// prompts then carry no worked examples.
func New(client llmclient.LLMClient, retriever *knowledge.Retriever, validator *validate.Validator, opts ...Option) *Formulator {
	f := &Formulator{
		client:      client,
		retriever:   retriever,
		validator:   validator,
		cache:       memory.New[uint64, types.ModelSpec](defaultCacheSize, defaultCacheTTL),
		maxAttempts: defaultMaxAttempts,
		exemplars:   defaultExemplars,
		log:         log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Formulate produces a validated model spec for the problem text. Identical
// problems with identical retrieved context hit the cache and cost zero
// backend calls. When every attempt fails validation the error is a
// *types.FormulationFailure carrying the last report; an invalid spec is
// never returned alongside a nil error.
func (f *Formulator) Formulate(ctx context.Context, problemText string) (types.ModelSpec, error) {
	var exemplars []knowledge.Exemplar
	if f.retriever != nil {
		exemplars = f.retriever.Retrieve(problemText, f.exemplars)
	}

	key := contentKey(problemText, exemplars)
	if hit, ok := f.cache.Get(key); ok {
		f.log.Printf("formulate: cache hit for problem hash %x", key)
		return hit, nil
	}

	var (
		reports []types.ValidationReport
		lastErr error
	)
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return types.ModelSpec{}, err
		}
		prompt := buildPrompt(exemplars, reports)
		raw, err := f.client.GenerateJSON(ctx, prompt, problemText)
		if err != nil {
			if llmclient.IsPermanent(err) {
				return types.ModelSpec{}, err
			}
			f.log.Printf("formulate: attempt %d/%d backend error: %v", attempt, f.maxAttempts, err)
			lastErr = err
			continue
		}
		payload, err := jsonutil.ExtractPayload(raw)
		if err != nil {
			f.log.Printf("formulate: attempt %d/%d unusable payload: %v", attempt, f.maxAttempts, err)
			lastErr = fmt.Errorf("%w: %v", llmclient.ErrInvalidJSON, err)
			continue
		}
		spec, err := types.DecodeModelSpec(payload)
		if err != nil {
			// Decode failures become feedback the same way validation
			// findings do, so the model can correct its own output shape.
			f.log.Printf("formulate: attempt %d/%d decode error: %v", attempt, f.maxAttempts, err)
			lastErr = err
			reports = append(reports, types.ValidationReport{Violations: []types.Violation{{
				Category: types.CategoryMathematical,
				Message:  "response did not decode into the required JSON shape: " + err.Error(),
			}}})
			continue
		}
		report := f.validator.Spec(spec)
		reports = append(reports, report)
		if !report.Passed {
			f.log.Printf("formulate: attempt %d/%d rejected: %s", attempt, f.maxAttempts, report.Summary())
			continue
		}
		if spec.ModelType == "" {
			spec.ModelType = solver.DeriveModelType(spec)
		}
		f.cache.Set(key, spec)
		return spec, nil
	}

	failure := &types.FormulationFailure{Attempts: f.maxAttempts, LastErr: lastErr}
	if len(reports) > 0 {
		failure.LastReport = reports[len(reports)-1]
	}
	return types.ModelSpec{}, failure
}

// contentKey hashes the problem text, the retrieved exemplar IDs and the
// prompt version. Any change to the retrieved context or the prompt yields a
// different key.
func contentKey(problemText string, exemplars []knowledge.Exemplar) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(promptVersion))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(problemText))
	for _, ex := range exemplars {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(ex.ID))
	}
	return h.Sum64()
}

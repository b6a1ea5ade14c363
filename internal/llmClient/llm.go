package llmclient

import (
	"context"
	"encoding/json"
	"errors"
)

// LLMClient is the transport-level contract for a generative reasoning
// backend. Cross-cutting concerns (rate limiting, retries, failover, logging)
// are layered on via llm.Middleware, never implemented here.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

var ErrInvalidJSON = errors.New("invalid json from reasoning backend")

// PermanentError indicates an error that will not resolve with retries or
// failover, e.g. a prompt exceeding every region's context window.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError anywhere in its chain.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

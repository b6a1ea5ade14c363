package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	llmclient "optimind/internal/llmClient"
)

// ErrBackendUnavailable is returned when every configured region has been
// tried and failed. The last region's error is wrapped for inspection.
var ErrBackendUnavailable = errors.New("llm: all backend regions unavailable")

// FailoverClient tries an ordered list of regional clients in sequence with a
// per-attempt timeout. Quota-exceeded and transport errors are treated
// identically: either moves on to the next region. Failover is sequential by
// design; a struggling backend is never fanned out to in parallel.
type FailoverClient struct {
	clients        []llmclient.LLMClient
	attemptTimeout time.Duration
	log            *log.Logger
}

// NewFailover builds a failover client over the given regional clients, tried
// in slice order. attemptTimeout bounds each region's call; <= 0 disables the
// per-attempt bound (the caller's context still applies).
func NewFailover(clients []llmclient.LLMClient, attemptTimeout time.Duration, logger *log.Logger) *FailoverClient {
	if logger == nil {
		logger = log.Default()
	}
	return &FailoverClient{clients: clients, attemptTimeout: attemptTimeout, log: logger}
}

func (f *FailoverClient) Name() string {
	if len(f.clients) == 0 {
		return "failover:empty"
	}
	return "failover:" + f.clients[0].Name()
}

func (f *FailoverClient) Close() error {
	var first error
	for _, c := range f.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// GenerateJSON walks the region list until one call succeeds. Cancellation is
// honored before each attempt; an in-flight call is bounded by the per-attempt
// timeout rather than interrupted.
func (f *FailoverClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if len(f.clients) == 0 {
		return nil, ErrBackendUnavailable
	}
	var last error
	for _, cli := range f.clients {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if f.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, f.attemptTimeout)
		}
		raw, err := cli.GenerateJSON(attemptCtx, prompt, input)
		cancel()
		if err == nil {
			return raw, nil
		}
		if llmclient.IsPermanent(err) {
			return nil, err
		}
		f.log.Printf("region %s failed, trying next: %v", cli.Name(), err)
		last = err
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, last)
}

// Failover is the middleware form of NewFailover: the wrapped client becomes
// the highest-priority region and fallbacks follow it.
func Failover(fallbacks []llmclient.LLMClient, attemptTimeout time.Duration, logger *log.Logger) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return NewFailover(append([]llmclient.LLMClient{next}, fallbacks...), attemptTimeout, logger)
	}
}

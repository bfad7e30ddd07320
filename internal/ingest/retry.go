package ingest

import (
	"context"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// retryPolicy bounds repeated attempts against flaky upstreams.
type retryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
}

// do runs op up to MaxAttempts times with exponential backoff.
// Only transient errors (source unavailable, rate limited) are
// retried; validation and parse failures surface immediately.
func (p retryPolicy) do(ctx context.Context, op func() error) error {
	delay := p.Delay

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !contracts.IsTransient(err) || attempt == p.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}

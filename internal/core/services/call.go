package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/logger"
)

// callWithPolicy runs fn under the policy's per-attempt timeout, retrying
// with exponential backoff until MaxAttempts is reached. Cancellation of the
// parent context stops retries immediately.
func callWithPolicy[T any](
	ctx context.Context, p domain.CallPolicy, name string, fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	attempts := p.Attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := p.Backoff(attempt - 1)
			logger.Debug("%s: retry %d/%d in %s", name, attempt, attempts, wait)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(wait):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, p.TimeoutOrDefault())
		out, err := fn(callCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, err
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return zero, err
		}
		logger.Debug("%s: attempt %d failed: %v", name, attempt, err)
	}
	return zero, lastErr
}

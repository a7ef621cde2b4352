package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/chartvoice/chartvoice/models"
)

// retryPolicy retries a generation call with exponential backoff. The delay
// before attempt n+1 is 2^n * BaseDelay, so the defaults (5 attempts, 2s
// base) sleep 2, 4, 8 and 16 seconds between attempts.
type retryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep is swapped out in tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// do runs fn until it succeeds or the attempt budget is spent. Both service
// failures and malformed responses are retried; an auth failure is returned
// immediately since no amount of waiting fixes a bad credential.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) ([]models.QA, error)) ([]models.QA, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if models.ErrorCode(err) == models.ErrCodeLLMAuthFailure {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < p.MaxAttempts-1 {
			delay := time.Duration(1<<attempt) * p.BaseDelay
			slog.Warn("generation attempt failed, backing off",
				"attempt", attempt+1,
				"maxAttempts", p.MaxAttempts,
				"delay", delay,
				"error", err,
			)
			sleep(delay)
		}
	}

	slog.Warn("generation failed after all retries", "attempts", p.MaxAttempts, "error", lastErr)
	return nil, lastErr
}

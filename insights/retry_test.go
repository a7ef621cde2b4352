package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/chartvoice/chartvoice/models"
)

func TestRetry_BackoffSchedule(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	p := retryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Sleep:       func(d time.Duration) { delays = append(delays, d) },
	}

	calls := 0
	_, err := p.do(context.Background(), func(context.Context) ([]models.QA, error) {
		calls++
		return nil, models.NewPipelineError(models.ErrCodeLLMFailure, "server error", nil)
	})
	if err == nil {
		t.Fatal("exhausted retries should return the last error")
	}
	if calls != 5 {
		t.Fatalf("calls=%d, want 5", calls)
	}

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	if diff := cmp.Diff(want, delays); diff != "" {
		t.Fatalf("backoff schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	p := retryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Sleep:       func(time.Duration) {},
	}

	calls := 0
	out, err := p.do(context.Background(), func(context.Context) ([]models.QA, error) {
		calls++
		if calls < 3 {
			return nil, models.NewPipelineError(models.ErrCodeDecodeFailure, "garbled output", nil)
		}
		return []models.QA{{Question: "Q", Answer: "A"}}, nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d, want 3", calls)
	}
	if len(out) != 1 || out[0].Question != "Q" {
		t.Fatalf("out=%+v", out)
	}
}

func TestRetry_DecodeFailuresAreRetried(t *testing.T) {
	t.Parallel()

	var slept int
	p := retryPolicy{
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		Sleep:       func(time.Duration) { slept++ },
	}

	_, err := p.do(context.Background(), func(context.Context) ([]models.QA, error) {
		return nil, models.NewPipelineError(models.ErrCodeDecodeFailure, "not json", nil)
	})
	if err == nil {
		t.Fatal("want error after exhausting retries")
	}
	if slept != 1 {
		t.Fatalf("slept=%d, want 1 backoff between 2 attempts", slept)
	}
}

func TestRetry_AuthFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	p := retryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Sleep: func(time.Duration) {
			t.Fatal("auth failure must not back off")
		},
	}

	calls := 0
	_, err := p.do(context.Background(), func(context.Context) ([]models.QA, error) {
		calls++
		return nil, models.NewPipelineError(models.ErrCodeLLMAuthFailure, "bad key", nil)
	})
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
	if got := models.ErrorCode(err); got != models.ErrCodeLLMAuthFailure {
		t.Fatalf("code=%q, want auth failure", got)
	}
}

func TestRetry_CancelledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := retryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Sleep:       func(time.Duration) {},
	}

	calls := 0
	_, err := p.do(ctx, func(context.Context) ([]models.QA, error) {
		calls++
		return nil, models.NewPipelineError(models.ErrCodeLLMFailure, "server error", nil)
	})
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

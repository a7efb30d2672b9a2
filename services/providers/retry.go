package providers

import (
	"context"
	"time"

	"github.com/upb/provider-gateway/services"
)

// OutcomeKind tags the result of a single upstream attempt
type OutcomeKind int

const (
	// OutcomeSuccess means the attempt produced a usable response
	OutcomeSuccess OutcomeKind = iota

	// OutcomeRetry means the attempt failed transiently and may be retried
	OutcomeRetry

	// OutcomeFatal means the attempt failed in a way retrying cannot fix
	OutcomeFatal
)

// AttemptOutcome is the tagged result of one attempt. Driving the retry
// loop from this tag instead of raised errors keeps the backoff policy
// independently testable.
type AttemptOutcome struct {
	Kind OutcomeKind

	// Err is the classified failure for retry/fatal outcomes
	Err error

	// Wait overrides the exponential backoff delay when positive, e.g.
	// an upstream Retry-After hint
	Wait time.Duration
}

// Success reports a successful attempt
func Success() AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeSuccess}
}

// Retryable reports a transient failure retried under exponential backoff
func Retryable(err error) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeRetry, Err: err}
}

// RetryableAfter reports a transient failure with an explicit wait hint
func RetryableAfter(err error, wait time.Duration) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeRetry, Err: err, Wait: wait}
}

// Fatal reports a failure that must surface immediately
func Fatal(err error) AttemptOutcome {
	return AttemptOutcome{Kind: OutcomeFatal, Err: err}
}

// AttemptFunc runs one attempt and reports its tagged outcome. The
// attempt counter starts at zero.
type AttemptFunc func(ctx context.Context, attempt int) AttemptOutcome

// RetryPolicy executes attempts with bounded retry and exponential
// backoff. Attempt state is local to one Execute call; nothing is shared
// across requests.
type RetryPolicy struct {
	// MaxRetries bounds retries; total attempts = MaxRetries + 1
	MaxRetries int

	// BaseDelay is the backoff delay for the first retry, doubling with
	// each subsequent attempt
	BaseDelay time.Duration

	// SleepFunc suspends between attempts. Nil means a real timer honoring
	// context cancellation; tests substitute a recorder.
	SleepFunc func(ctx context.Context, d time.Duration) error

	// OnRetry, when set, observes every retry just before its backoff
	// wait. The final exhausted attempt is not a retry and is not
	// reported.
	OnRetry func(attempt int, wait time.Duration)
}

// NewRetryPolicy builds a policy from config, applying defaults. A
// negative maxRetries disables retries entirely.
func NewRetryPolicy(maxRetries int, baseDelay time.Duration) RetryPolicy {
	if maxRetries < 0 {
		// Explicit opt-out: one attempt, no retries.
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return RetryPolicy{MaxRetries: maxRetries, BaseDelay: baseDelay}
}

// Execute runs attempts until one succeeds, one fails fatally, or the
// retry budget is exhausted. On exhaustion the last recorded failure is
// returned; the no-recorded-error branch is unreachable in a correct
// AttemptFunc but returns a generic gateway error rather than panicking.
func (p RetryPolicy) Execute(ctx context.Context, run AttemptFunc) error {
	attempts := p.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		outcome := run(ctx, attempt)

		switch outcome.Kind {
		case OutcomeSuccess:
			return nil
		case OutcomeFatal:
			return outcome.Err
		case OutcomeRetry:
			lastErr = outcome.Err
		}

		if attempt == attempts-1 {
			break
		}

		wait := outcome.Wait
		if wait <= 0 {
			wait = p.BaseDelay << uint(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait)
		}
		if err := p.sleep(ctx, wait); err != nil {
			// Cancelled mid-backoff: surface the failure already recorded
			// for this request, not the cancellation.
			if lastErr != nil {
				return lastErr
			}
			return services.NewTimeoutError("request cancelled during backoff", err)
		}
	}

	if lastErr != nil {
		return lastErr
	}
	return services.WrapInternal("retry budget exhausted without a recorded error", nil)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.SleepFunc != nil {
		return p.SleepFunc(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

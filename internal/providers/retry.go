package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Policy controls ExecuteWithRetry. The zero value gets the defaults:
// 3 attempts, 1s base delay, no per-attempt timeout.
type Policy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	PerAttemptTimeout time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	return p
}

// backoffDelay returns the wait before the given attempt (2-based):
// base, 2*base, 4*base, ...
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt-2)
}

// ExecuteWithRetry runs call up to MaxAttempts times, sleeping with
// exponential back-off between retryable failures. Non-retryable errors
// fail immediately. Each attempt is bounded by PerAttemptTimeout when set;
// an attempt timeout counts as a network error for retry purposes. The
// returned int is the number of attempts made; on exhaustion the last
// error is surfaced, annotated with that count. The wrapper holds no state
// between invocations.
func ExecuteWithRetry(ctx context.Context, p Policy, call func(ctx context.Context) (string, error)) (string, int, error) {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(p.BaseDelay, attempt)
			slog.Debug("retrying provider call", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return "", attempt - 1, annotate(ctx.Err(), attempt-1)
			case <-time.After(delay):
			}
		}

		result, err := callOnce(ctx, p.PerAttemptTimeout, call)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", attempt, annotate(err, attempt)
		}
		slog.Warn("provider call failed", "attempt", attempt, "max_attempts", p.MaxAttempts, "error", err)
	}

	return "", p.MaxAttempts, annotate(lastErr, p.MaxAttempts)
}

func callOnce(ctx context.Context, timeout time.Duration, call func(ctx context.Context) (string, error)) (string, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := call(attemptCtx)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		// The attempt timed out, not the caller.
		return "", &Error{Kind: KindNetwork, Message: "attempt timed out", Err: err}
	}
	return result, err
}

// annotate stamps the attempt count onto a provider error so callers can
// report how many tries were consumed.
func annotate(err error, attempts int) error {
	var pe *Error
	if errors.As(err, &pe) {
		return &Error{
			Kind:     pe.Kind,
			Provider: pe.Provider,
			Message:  pe.Message,
			Attempts: attempts,
			Err:      pe.Err,
		}
	}
	return err
}

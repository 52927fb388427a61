package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestExecuteWithRetry_FirstAttemptSuccess(t *testing.T) {
	calls := 0
	result, attempts, err := ExecuteWithRetry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || attempts != 1 || calls != 1 {
		t.Errorf("result=%q attempts=%d calls=%d", result, attempts, calls)
	}
}

func TestExecuteWithRetry_RetryableThenSuccess(t *testing.T) {
	calls := 0
	_, attempts, err := ExecuteWithRetry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", &Error{Kind: KindRateLimit, Provider: "openai", Message: "rate limited"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (position of first success)", attempts)
	}
}

func TestExecuteWithRetry_NonRetryableSingleAttempt(t *testing.T) {
	for _, kind := range []Kind{KindAuth, KindModelUnavailable, KindMalformedResponse} {
		t.Run(string(kind), func(t *testing.T) {
			calls := 0
			_, attempts, err := ExecuteWithRetry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
				calls++
				return "", &Error{Kind: kind, Message: "boom"}
			})
			if calls != 1 || attempts != 1 {
				t.Errorf("calls=%d attempts=%d, want exactly one attempt", calls, attempts)
			}
			if KindOf(err) != kind {
				t.Errorf("KindOf = %q, want %q", KindOf(err), kind)
			}
		})
	}
}

func TestExecuteWithRetry_ExhaustionSurfacesLastError(t *testing.T) {
	calls := 0
	_, attempts, err := ExecuteWithRetry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &Error{Kind: KindRateLimit, Message: "rate limited"}
		}
		return "", &Error{Kind: KindNetwork, Message: "connection reset"}
	})
	if calls != 3 || attempts != 3 {
		t.Errorf("calls=%d attempts=%d, want 3", calls, attempts)
	}
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pe.Kind != KindNetwork {
		t.Errorf("Kind = %q, want the last observed error", pe.Kind)
	}
	if pe.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", pe.Attempts)
	}
}

func TestBackoffDelay_Doubling(t *testing.T) {
	base := time.Second
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, attempt := range []int{2, 3, 4} {
		if got := backoffDelay(base, attempt); got != want[i] {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", attempt, got, want[i])
		}
	}
}

func TestExecuteWithRetry_AttemptTimeoutIsNetworkError(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, PerAttemptTimeout: 5 * time.Millisecond}
	calls := 0
	_, attempts, err := ExecuteWithRetry(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})
	if calls != 2 || attempts != 2 {
		t.Errorf("calls=%d attempts=%d, want timeout treated as retryable", calls, attempts)
	}
	if KindOf(err) != KindNetwork {
		t.Errorf("KindOf = %q, want network", KindOf(err))
	}
}

func TestExecuteWithRetry_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ExecuteWithRetry(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Minute}, func(ctx context.Context) (string, error) {
		return "", &Error{Kind: KindRateLimit, Message: "rate limited"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestErrorRetryablePartition(t *testing.T) {
	retryable := []Kind{KindRateLimit, KindNetwork}
	terminal := []Kind{KindAuth, KindModelUnavailable, KindMalformedResponse}
	for _, k := range retryable {
		if !IsRetryable(&Error{Kind: k}) {
			t.Errorf("%s should be retryable", k)
		}
	}
	for _, k := range terminal {
		if IsRetryable(&Error{Kind: k}) {
			t.Errorf("%s should not be retryable", k)
		}
	}
	if IsRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
}

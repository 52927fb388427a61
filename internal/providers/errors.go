package providers

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure. The retryable/non-retryable split is
// fixed: only rate limits and network faults are worth retrying.
type Kind string

const (
	KindAuth              Kind = "auth"
	KindRateLimit         Kind = "rate_limit"
	KindModelUnavailable  Kind = "model_unavailable"
	KindNetwork           Kind = "network"
	KindMalformedResponse Kind = "malformed_response"
)

// Error is the normalized provider failure. Both backends map their wire
// errors onto this type; nothing above the provider layer sees raw HTTP
// statuses.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Attempts int // set by ExecuteWithRetry when retries were involved
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Attempts > 1 {
		return fmt.Sprintf("%s: %s (%s, after %d attempts)", e.Provider, msg, e.Kind, e.Attempts)
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, msg, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could reasonably succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindNetwork
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable()
}

// IsAuthError reports whether err is a credential failure.
func IsAuthError(err error) bool {
	return KindOf(err) == KindAuth
}

// KindOf extracts the Kind from err, or "" for non-provider errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

package genpipe

import (
	"errors"
	"fmt"
	"time"
)

// ErrLocalUnavailable is returned when the local model runtime is not
// compiled in or no model is configured.
var ErrLocalUnavailable = errors.New("local model unavailable")

// ErrUnexpectedPayload is returned when a remote service answers with a
// shape or content type that cannot be used.
var ErrUnexpectedPayload = errors.New("unexpected payload")

// ErrStorageNotConfigured is returned when storage operations are attempted
// without a configured storage backend.
var ErrStorageNotConfigured = errors.New("storage not configured")

// Limit types reported in RateLimitError.
const (
	LimitBudget   = "budget"   // refused by the local or shared limiter
	LimitProvider = "provider" // refused by the remote service
)

// RateLimitError reports a refused remote call. The text tier treats it
// like any other remote failure and falls through.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("%s rate limit reached for %s", e.LimitType, e.Model)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(", retry after %v", e.RetryAfter.Round(time.Millisecond))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimitError reports whether err wraps a *RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

package api

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy bounds how transient failures (HTTP 429 and 5xx) are retried.
// The zero value disables retries; Delay and Retryable are pure so the
// schedule can be asserted without a clock.
type RetryPolicy struct {
	// MaxAttempts is the total request budget, including the first attempt.
	MaxAttempts int
	// BaseDelay is the wait before the first retry; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the computed wait.
	MaxDelay time.Duration
	// Jitter adds up to Jitter*delay of random extra wait. Zero disables it.
	Jitter float64
	// Now is used to interpret HTTP-date Retry-After values. Defaults to
	// time.Now.
	Now func() time.Time
}

// DefaultRetryPolicy is 5 attempts total, 1s base delay doubling per
// attempt, capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Retryable reports whether a status code is worth retrying.
func (p RetryPolicy) Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Delay returns how long to wait before the next attempt. attempt is 1-based
// (1 = the wait after the first failed request). A parsable Retry-After
// header value takes precedence over the exponential schedule.
func (p RetryPolicy) Delay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}

		if at, err := http.ParseTime(retryAfter); err == nil {
			if wait := at.Sub(p.now()); wait > 0 {
				return wait
			}

			return 0
		}
	}

	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter > 0 {
		delay += time.Duration(rand.Float64() * p.Jitter * float64(delay))
	}

	return delay
}

func (p RetryPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}

	return time.Now()
}

// RetryExhaustedError is returned when a retryable status persisted past the
// retry budget. It carries the last response so callers can report it.
type RetryExhaustedError struct {
	Status   int
	Body     []byte
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts (last status %d): %s", e.Attempts, e.Status, string(e.Body))
}

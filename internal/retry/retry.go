// Package retry classifies API failures and decides backoff for
// re-attempts. The policy is stateless: callers track the attempt
// number for one logical call and discard it when the call resolves.
package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Kind classifies a failed (or successful) API call attempt.
// The orchestration loop and the instrumented transport pattern-match
// on Kind instead of inspecting raw errors or status codes.
type Kind int

const (
	// KindNone means the attempt succeeded.
	KindNone Kind = iota

	// KindAuth is an authentication/authorization failure (401/403).
	// Fatal to the whole conversation; retrying cannot help.
	KindAuth

	// KindBadRequest is a malformed request rejected by the service (400).
	KindBadRequest

	// KindNotFound means the deployment or resource does not exist (404).
	KindNotFound

	// KindRateLimited means the service signaled backpressure (429).
	KindRateLimited

	// KindTransient is a connection-level failure before or during the
	// exchange (refused, unreachable, timeout).
	KindTransient

	// KindServer is a generic server-side failure (5xx).
	KindServer
)

// String returns the kind name for logging and error messages.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on
// re-attempt. Auth, bad-request, and not-found failures never do.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTransient, KindServer:
		return true
	default:
		return false
	}
}

// Classify maps an HTTP status code to a Kind.
func Classify(status int) Kind {
	switch {
	case status >= 200 && status < 300:
		return KindNone
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindBadRequest
	}
}

// ClassifyErr maps a round-trip error to a Kind. Connection-level
// failures (dial errors, timeouts, resets) are transient; a cancelled
// context is not — the caller asked to stop.
func ClassifyErr(err error) Kind {
	if err == nil {
		return KindNone
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindBadRequest
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET,
			syscall.EHOSTUNREACH, syscall.ENETUNREACH,
			syscall.EPIPE:
			return KindTransient
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindTransient
	}

	return KindTransient
}

// Default policy tunables. Tutorial-level values; override via config.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Policy decides whether and when a failed call is re-issued.
// The zero value is unusable; use DefaultPolicy or fill all fields.
type Policy struct {
	// MaxAttempts is the total number of physical attempts allowed
	// for one logical call, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt. The delay
	// doubles with each subsequent attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
}

// DefaultPolicy returns the stock policy: 3 attempts, 1s base, 30s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Decide reports whether attempt (1-based) of a call that failed with
// kind should be retried, and the delay to wait first. Non-retryable
// kinds and exhausted attempt budgets both return false.
func (p Policy) Decide(attempt int, kind Kind) (time.Duration, bool) {
	if !kind.Retryable() {
		return 0, false
	}
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.delay(attempt), true
}

// delay computes the exponential backoff after the given attempt:
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
// Returns the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

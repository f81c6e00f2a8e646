package resilience

import (
	"errors"
	"fmt"
	"time"
)

// MaxRetryFailures caps the number of inner failures retained inside a
// RetryExhausted error. Once exceeded, the oldest entries are dropped so
// memory stays bounded under long retry budgets.
const MaxRetryFailures = 10

// errorKind tags which variant of ResilienceError is populated. Go has no
// tagged unions, so the kind selects which of the struct's fields are valid.
type errorKind int

const (
	kindInner errorKind = iota
	kindTimeout
	kindBulkhead
	kindBulkheadClosed
	kindCircuitOpen
	kindRetryExhausted
	kindRateLimited
)

// ResilienceError is the unified failure type returned by every layer in
// this package. E is the error type of the wrapped operation; it is carried
// unchanged inside the Inner variant.
type ResilienceError[E error] struct {
	kind errorKind

	// Timeout
	elapsed time.Duration
	timeout time.Duration

	// Bulkhead
	inFlight int
	max      int

	// CircuitOpen
	failureCount int
	openDuration time.Duration

	// RetryExhausted
	attempts int
	failures []E

	// RateLimited
	wait time.Duration

	// Inner
	inner E
}

// TimeoutErr builds a ResilienceError reporting that an operation exceeded its
// time budget.
func TimeoutErr[E error](elapsed, timeout time.Duration) *ResilienceError[E] {
	return &ResilienceError[E]{kind: kindTimeout, elapsed: elapsed, timeout: timeout}
}

// BulkheadErr builds a ResilienceError reporting that a permit acquisition
// was refused due to capacity.
func BulkheadErr[E error](inFlight, max int) *ResilienceError[E] {
	return &ResilienceError[E]{kind: kindBulkhead, inFlight: inFlight, max: max}
}

// BulkheadClosedErr builds a ResilienceError reporting that the permit pool
// has been shut down and will never admit another call.
func BulkheadClosedErr[E error]() *ResilienceError[E] {
	return &ResilienceError[E]{kind: kindBulkheadClosed}
}

// CircuitOpenErr builds a ResilienceError reporting that a circuit breaker
// is currently blocking calls.
func CircuitOpenErr[E error](failureCount int, openDuration time.Duration) *ResilienceError[E] {
	return &ResilienceError[E]{kind: kindCircuitOpen, failureCount: failureCount, openDuration: openDuration}
}

// RetryExhaustedErr builds a ResilienceError reporting that every retry
// attempt failed. failures is trimmed to the most recent MaxRetryFailures
// entries.
func RetryExhaustedErr[E error](attempts int, failures []E) *ResilienceError[E] {
	trimmed := failures
	if len(failures) > MaxRetryFailures {
		trimmed = make([]E, MaxRetryFailures)
		copy(trimmed, failures[len(failures)-MaxRetryFailures:])
	}
	return &ResilienceError[E]{kind: kindRetryExhausted, attempts: attempts, failures: trimmed}
}

// RateLimitedErr builds a ResilienceError reporting that the rate limiter
// denied admission and the caller should wait before retrying.
func RateLimitedErr[E error](wait time.Duration) *ResilienceError[E] {
	return &ResilienceError[E]{kind: kindRateLimited, wait: wait}
}

// InnerErr wraps the underlying operation's own error. It is the only
// variant eligible for retry.
func InnerErr[E error](err E) *ResilienceError[E] {
	return &ResilienceError[E]{kind: kindInner, inner: err}
}

// Error implements the error interface with a self-describing message.
func (e *ResilienceError[E]) Error() string {
	switch e.kind {
	case kindTimeout:
		return fmt.Sprintf("operation timed out after %s (limit: %s)", e.elapsed, e.timeout)
	case kindBulkhead:
		return fmt.Sprintf("bulkhead rejected request (%d in-flight, max %d)", e.inFlight, e.max)
	case kindBulkheadClosed:
		return "bulkhead is closed"
	case kindCircuitOpen:
		return fmt.Sprintf("circuit breaker open (%d failures, open for %s)", e.failureCount, e.openDuration)
	case kindRetryExhausted:
		recorded := len(e.failures)
		note := ""
		if recorded < e.attempts {
			note = fmt.Sprintf(" (recorded last %d failures)", recorded)
		}
		if recorded == 0 {
			return fmt.Sprintf("retry exhausted after %d attempts%s; no recorded failures", e.attempts, note)
		}
		return fmt.Sprintf("retry exhausted after %d attempts%s; last error: %s", e.attempts, note, e.failures[recorded-1])
	case kindRateLimited:
		return fmt.Sprintf("rate limited, retry after %s", e.wait)
	case kindInner:
		return e.inner.Error()
	default:
		return "resilience: unknown error"
	}
}

// Unwrap exposes the inner error for errors.Is/errors.As when this is an
// Inner variant, and the most recent recorded failure when this is a
// RetryExhausted variant.
func (e *ResilienceError[E]) Unwrap() error {
	switch e.kind {
	case kindInner:
		return e.inner
	case kindRetryExhausted:
		if len(e.failures) == 0 {
			return nil
		}
		return e.failures[len(e.failures)-1]
	default:
		return nil
	}
}

// IsTimeout reports whether this error is a Timeout variant.
func (e *ResilienceError[E]) IsTimeout() bool { return e.kind == kindTimeout }

// IsBulkhead reports whether this error is a Bulkhead variant.
func (e *ResilienceError[E]) IsBulkhead() bool { return e.kind == kindBulkhead }

// IsBulkheadClosed reports whether this error is a BulkheadClosed variant.
func (e *ResilienceError[E]) IsBulkheadClosed() bool { return e.kind == kindBulkheadClosed }

// IsCircuitOpen reports whether this error is a CircuitOpen variant.
func (e *ResilienceError[E]) IsCircuitOpen() bool { return e.kind == kindCircuitOpen }

// IsRetryExhausted reports whether this error is a RetryExhausted variant.
func (e *ResilienceError[E]) IsRetryExhausted() bool { return e.kind == kindRetryExhausted }

// IsRateLimited reports whether this error is a RateLimited variant.
func (e *ResilienceError[E]) IsRateLimited() bool { return e.kind == kindRateLimited }

// IsInner reports whether this error wraps the operation's own error.
func (e *ResilienceError[E]) IsInner() bool { return e.kind == kindInner }

// AsInner returns the wrapped inner error and true when this is an Inner
// variant.
func (e *ResilienceError[E]) AsInner() (E, bool) {
	if e.kind == kindInner {
		return e.inner, true
	}
	var zero E
	return zero, false
}

// TimeoutDetails returns (elapsed, timeout) when this is a Timeout variant.
func (e *ResilienceError[E]) TimeoutDetails() (elapsed, timeout time.Duration, ok bool) {
	if e.kind != kindTimeout {
		return 0, 0, false
	}
	return e.elapsed, e.timeout, true
}

// BulkheadCapacity returns (inFlight, max) when this is a Bulkhead variant.
func (e *ResilienceError[E]) BulkheadCapacity() (inFlight, max int, ok bool) {
	if e.kind != kindBulkhead {
		return 0, 0, false
	}
	return e.inFlight, e.max, true
}

// CircuitOpenDuration returns how long the breaker had been open when the
// call was rejected, when this is a CircuitOpen variant.
func (e *ResilienceError[E]) CircuitOpenDuration() (time.Duration, bool) {
	if e.kind != kindCircuitOpen {
		return 0, false
	}
	return e.openDuration, true
}

// RetryExhaustedInfo returns (attempts, recordedFailures) when this is a
// RetryExhausted variant.
func (e *ResilienceError[E]) RetryExhaustedInfo() (attempts, recorded int, ok bool) {
	if e.kind != kindRetryExhausted {
		return 0, 0, false
	}
	return e.attempts, len(e.failures), true
}

// Failures returns the recorded failures when this is a RetryExhausted
// variant.
func (e *ResilienceError[E]) Failures() ([]E, bool) {
	if e.kind != kindRetryExhausted {
		return nil, false
	}
	return e.failures, true
}

// Wait returns the suggested wait duration when this is a RateLimited
// variant.
func (e *ResilienceError[E]) Wait() (time.Duration, bool) {
	if e.kind != kindRateLimited {
		return 0, false
	}
	return e.wait, true
}

// Construction-time configuration errors. These are returned by constructors
// and never surface from Execute/Call paths.
var (
	// ErrMaxFailuresMustBePositive indicates CircuitBreakerConfig.MaxFailures <= 0.
	ErrMaxFailuresMustBePositive = errors.New("resilience: max failures must be positive")

	// ErrRecoveryTimeoutMustBePositive indicates CircuitBreakerConfig.ResetTimeout <= 0.
	ErrRecoveryTimeoutMustBePositive = errors.New("resilience: recovery timeout must be positive")

	// ErrHalfOpenMaxMustBePositive indicates CircuitBreakerConfig.HalfOpenMaxRequests <= 0.
	ErrHalfOpenMaxMustBePositive = errors.New("resilience: half-open max requests must be positive")

	// ErrMaxAttemptsMustBePositive indicates RetryConfig.MaxAttempts < 1.
	ErrMaxAttemptsMustBePositive = errors.New("resilience: max attempts must be at least 1")

	// ErrMaxConcurrentMustBePositive indicates NewBulkhead was called with maxConcurrent <= 0.
	ErrMaxConcurrentMustBePositive = errors.New("resilience: max concurrent must be positive")

	// ErrTimeoutMustBePositive indicates a zero or negative timeout duration.
	ErrTimeoutMustBePositive = errors.New("resilience: timeout duration must be positive and finite")

	// ErrMaxMustBePositive indicates Backoff.WithMax was called with max <= 0.
	ErrMaxMustBePositive = errors.New("resilience: backoff max must be positive")

	// ErrMaxLessThanBase indicates Backoff.WithMax was called with max < base.
	ErrMaxLessThanBase = errors.New("resilience: backoff max is less than base")

	// ErrJitterBaseExceedsMax indicates NewDecorrelatedJitter was called with base > max.
	ErrJitterBaseExceedsMax = errors.New("resilience: jitter base exceeds max")

	// ErrRateMustBePositive indicates a negative TokenBucketLimiterConfig.Rate.
	ErrRateMustBePositive = errors.New("resilience: rate must be positive")

	// ErrCapacityMustBePositive indicates a negative TokenBucketLimiterConfig.Capacity.
	ErrCapacityMustBePositive = errors.New("resilience: capacity must be positive")

	// ErrBreakerNotFound indicates Registry.Reset was called with an unknown id.
	ErrBreakerNotFound = errors.New("resilience: breaker id not found")
)

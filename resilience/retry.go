package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/ninelives/telemetry"
)

// RetryConfig configures a Retry policy.
type RetryConfig[E error] struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Default: 3
	MaxAttempts int

	// Backoff computes the delay before each retry. Default: constant 100ms.
	Backoff Backoff

	// Jitter randomizes the computed delay. Default: NoneJitter.
	Jitter Jitter

	// ShouldRetry decides whether an Inner failure should be retried.
	// Default: always retry.
	ShouldRetry func(E) bool

	// Sleeper suspends between attempts. Default: RealSleeper.
	Sleeper Sleeper

	// OnRetry is called before each retry sleep, after the attempt that
	// failed and before the delay is slept.
	OnRetry func(attempt int, delay time.Duration)

	// Sink receives Attempt/Exhausted telemetry events for every
	// RetryExecute call. Default: telemetry.NullSink{}.
	Sink telemetry.Sink
}

// Retry re-invokes an operation on retryable failures, waiting according to
// Backoff and Jitter between attempts.
type Retry[E error] struct {
	maxAttempts *AtomicDynamicConfig[int]
	backoff     Backoff
	jitter      Jitter
	shouldRetry func(E) bool
	sleeper     Sleeper
	onRetry     func(attempt int, delay time.Duration)
	sink        telemetry.Sink
}

// NewRetry creates a Retry policy, applying defaults for zero-value fields.
// Returns ErrMaxAttemptsMustBePositive if config.MaxAttempts is set to a
// negative value; zero takes the default of 3.
func NewRetry[E error](config RetryConfig[E]) (*Retry[E], error) {
	if config.MaxAttempts < 0 {
		return nil, ErrMaxAttemptsMustBePositive
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.Backoff == nil {
		config.Backoff = NewConstantBackoff(100 * time.Millisecond)
	}
	if config.Jitter == nil {
		config.Jitter = NewNoneJitter()
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = func(E) bool { return true }
	}
	if config.Sleeper == nil {
		config.Sleeper = NewRealSleeper()
	}
	if config.Sink == nil {
		config.Sink = telemetry.NullSink{}
	}

	return &Retry[E]{
		maxAttempts: NewAtomicDynamicConfig(config.MaxAttempts),
		backoff:     config.Backoff,
		jitter:      config.Jitter,
		shouldRetry: config.ShouldRetry,
		sleeper:     config.Sleeper,
		onRetry:     config.OnRetry,
		sink:        config.Sink,
	}, nil
}

// MaxAttempts exposes the live-tunable attempt budget. Changing it affects
// only retry loops started after the change.
func (r *Retry[E]) MaxAttempts() DynamicConfig[int] {
	return r.maxAttempts
}

// RetryExecute re-invokes op until it succeeds, returns a non-retryable
// error, or the attempt budget is exhausted.
//
// This is a free function rather than a method on Retry[E] because Go does
// not allow a method to introduce type parameters of its own: T, the
// operation's success type, varies per call site, while E, the policy's
// error type, is fixed when the Retry is constructed.
func RetryExecute[T any, E error](ctx context.Context, r *Retry[E], op func(context.Context) (T, *ResilienceError[E])) (T, *ResilienceError[E]) {
	var zero T
	start := time.Now()
	maxAttempts := r.maxAttempts.Get()
	capHint := maxAttempts
	if capHint > MaxRetryFailures {
		capHint = MaxRetryFailures
	}
	failures := make([]E, 0, capHint)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			telemetry.EmitBestEffort(ctx, r.sink, telemetry.NewRetryExhaustedEvent(attempt, time.Since(start)))
			return zero, contextCanceled[E](ctx)
		}

		v, resErr := op(ctx)
		if resErr == nil {
			return v, nil
		}

		inner, isInner := resErr.AsInner()
		if !isInner {
			return zero, resErr
		}

		if !r.shouldRetry(inner) {
			return zero, resErr
		}

		failures = appendBounded(failures, inner)

		if attempt+1 == maxAttempts {
			telemetry.EmitBestEffort(ctx, r.sink, telemetry.NewRetryExhaustedEvent(maxAttempts, time.Since(start)))
			return zero, RetryExhaustedErr(maxAttempts, failures)
		}

		delay := r.backoff.Delay(uint64(attempt + 1))
		if dj, ok := r.jitter.(*DecorrelatedJitter); ok {
			delay = dj.ApplyStateful()
		} else {
			delay = r.jitter.Apply(delay)
		}

		if r.onRetry != nil {
			r.onRetry(attempt+1, delay)
		}
		telemetry.EmitBestEffort(ctx, r.sink, telemetry.NewRetryAttemptEvent(attempt+1, delay))

		if err := r.sleeper.Sleep(ctx, delay); err != nil {
			telemetry.EmitBestEffort(ctx, r.sink, telemetry.NewRetryExhaustedEvent(attempt+1, time.Since(start)))
			return zero, RetryExhaustedErr(attempt+1, failures)
		}
	}

	telemetry.EmitBestEffort(ctx, r.sink, telemetry.NewRetryExhaustedEvent(maxAttempts, time.Since(start)))
	return zero, RetryExhaustedErr(maxAttempts, failures)
}

func appendBounded[E any](failures []E, e E) []E {
	failures = append(failures, e)
	if len(failures) > MaxRetryFailures {
		failures = failures[len(failures)-MaxRetryFailures:]
	}
	return failures
}

// contextCanceled reports the retry loop's own ctx check as exhaustion
// rather than attempting to coerce context.Canceled into the policy's
// operation-specific error type E, which has no general conversion.
func contextCanceled[E error](ctx context.Context) *ResilienceError[E] {
	return RetryExhaustedErr[E](0, nil)
}

package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/ninelives/telemetry"
)

// Timeout bounds how long an operation is allowed to run. duration must be
// in (0, MaxBackoff); NewTimeout rejects zero, negative, or absurdly large
// values at construction so misconfiguration never surfaces mid-call.
type Timeout struct {
	duration time.Duration
	sink     telemetry.Sink
}

// NewTimeout constructs a Timeout policy. Returns ErrTimeoutMustBePositive
// if duration is not strictly between zero and MaxBackoff.
func NewTimeout(duration time.Duration) (*Timeout, error) {
	if duration <= 0 || duration >= MaxBackoff {
		return nil, ErrTimeoutMustBePositive
	}
	return &Timeout{duration: duration, sink: telemetry.NullSink{}}, nil
}

// Duration returns the configured timeout.
func (t *Timeout) Duration() time.Duration {
	return t.duration
}

// SetSink wires sink to receive an Occurred event every time TimeoutExecute
// expires. Default: telemetry.NullSink{}.
func (t *Timeout) SetSink(sink telemetry.Sink) {
	t.sink = sink
}

// TimeoutExecute runs op, canceling it if it does not complete within the
// configured duration. On expiry, the inner context is canceled (so a
// cooperative op observes ctx.Done() and returns promptly) and this
// function returns a Timeout error without waiting for op to actually
// unwind; callers whose op is not cancellation-aware will leak a goroutine
// until op itself returns, matching the behavior of context.WithTimeout in
// the standard library.
//
// This is a free function, not a method, for the same reason RetryExecute
// is: the success type T varies per call while Timeout carries no type
// parameter of its own.
func TimeoutExecute[T any, E error](ctx context.Context, t *Timeout, op func(context.Context) (T, *ResilienceError[E])) (T, *ResilienceError[E]) {
	var zero T
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, t.duration)
	defer cancel()

	type result struct {
		v   T
		err *ResilienceError[E]
	}
	done := make(chan result, 1)

	go func() {
		v, err := op(timeoutCtx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-timeoutCtx.Done():
		telemetry.EmitBestEffort(ctx, t.sink, telemetry.NewTimeoutOccurredEvent(t.duration))
		return zero, TimeoutErr[E](time.Since(start), t.duration)
	}
}

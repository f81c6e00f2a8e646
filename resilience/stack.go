package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/ninelives/telemetry"
)

// Default values applied to whichever Stack layers a StackConfig leaves
// unset.
const (
	DefaultTimeoutSeconds               = 30
	DefaultBulkheadMaxConcurrent        = 100
	DefaultCircuitBreakerFailures       = 5
	DefaultCircuitBreakerTimeoutSeconds = 60
)

// StackConfig configures a Stack. Any field left nil/zero is filled with
// the package defaults (30s timeout, 100 concurrent, 5-failure breaker with
// a 60s open period, default Retry).
type StackConfig[E error] struct {
	Timeout        *Timeout
	Bulkhead       *Bulkhead
	CircuitBreaker *CircuitBreaker
	Retry          *Retry[E]

	// Sink receives a Success/Failure event for every StackExecute call,
	// timing the full Retry-through-Timeout chain. Default: telemetry.NullSink{}.
	Sink telemetry.Sink
}

// Stack composes the four call-path policies in a fixed order:
//
//	Retry -> CircuitBreaker -> Bulkhead -> Timeout -> operation
//
// Retry is outermost so a retried attempt re-enters the circuit breaker and
// bulkhead fresh each time; Timeout is innermost so it bounds only the
// operation itself, not the cumulative retry loop.
type Stack[E error] struct {
	timeout        *Timeout
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry[E]
	sink           telemetry.Sink
}

// NewStack builds a Stack, substituting package defaults for any unset
// layer in config.
func NewStack[E error](config StackConfig[E]) (*Stack[E], error) {
	timeout := config.Timeout
	if timeout == nil {
		t, err := NewTimeout(DefaultTimeoutSeconds * time.Second)
		if err != nil {
			return nil, err
		}
		timeout = t
	}

	bulkhead := config.Bulkhead
	if bulkhead == nil {
		b, err := NewBulkhead(DefaultBulkheadMaxConcurrent)
		if err != nil {
			return nil, err
		}
		bulkhead = b
	}

	breaker := config.CircuitBreaker
	if breaker == nil {
		cb, err := NewCircuitBreaker(CircuitBreakerConfig{
			MaxFailures:  DefaultCircuitBreakerFailures,
			ResetTimeout: DefaultCircuitBreakerTimeoutSeconds * time.Second,
		})
		if err != nil {
			return nil, err
		}
		breaker = cb
	}

	retry := config.Retry
	if retry == nil {
		r, err := NewRetry(RetryConfig[E]{})
		if err != nil {
			return nil, err
		}
		retry = r
	}

	sink := config.Sink
	if sink == nil {
		sink = telemetry.NullSink{}
	}

	return &Stack[E]{
		timeout:        timeout,
		bulkhead:       bulkhead,
		circuitBreaker: breaker,
		retry:          retry,
		sink:           sink,
	}, nil
}

// StackExecute runs op through the full Retry -> CircuitBreaker -> Bulkhead
// -> Timeout chain.
func StackExecute[T any, E error](ctx context.Context, s *Stack[E], op func(context.Context) (T, *ResilienceError[E])) (T, *ResilienceError[E]) {
	start := time.Now()
	v, resErr := RetryExecute(ctx, s.retry, func(ctx context.Context) (T, *ResilienceError[E]) {
		return CircuitBreakerExecute[T, E](ctx, s.circuitBreaker, nil, func(ctx context.Context) (T, *ResilienceError[E]) {
			return BulkheadExecute(ctx, s.bulkhead, func(ctx context.Context) (T, *ResilienceError[E]) {
				return TimeoutExecute(ctx, s.timeout, op)
			})
		})
	})

	duration := time.Since(start)
	if resErr != nil {
		telemetry.EmitBestEffort(ctx, s.sink, telemetry.NewRequestFailureEvent(duration))
	} else {
		telemetry.EmitBestEffort(ctx, s.sink, telemetry.NewRequestSuccessEvent(duration))
	}
	return v, resErr
}

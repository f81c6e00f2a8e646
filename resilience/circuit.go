package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

// CircuitState is one of the three states a CircuitBreaker can be in.
type CircuitState int32

const (
	// StateClosed means the circuit is operating normally.
	StateClosed CircuitState = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit
	// opens. Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays Open before allowing a
	// HalfOpen probe. Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of probe calls admitted while
	// HalfOpen. Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called by whichever goroutine wins the CAS race that
	// performs a given transition, so it fires exactly once per edge.
	OnStateChange func(from, to CircuitState)

	// Clock supplies NowMillis for opened_at bookkeeping. Default:
	// MonotonicClock.
	Clock Clock
}

// Disabled returns a CircuitBreakerConfig that never opens: the failure
// threshold and half-open probe budget are set to the largest representable
// values. Use this where a caller wants the breaker surface (State,
// Registry membership) without ever actually tripping.
func Disabled() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         int(^uint(0) >> 1),
		ResetTimeout:        MaxBackoff,
		HalfOpenMaxRequests: int(^uint(0) >> 1),
	}
}

// CircuitBreaker is a three-state admission gate (Closed/Open/HalfOpen)
// gating calls based on recent failure history. State is held in atomics
// rather than behind a mutex: every edge between distinguished states is
// taken with a compare-and-swap, and only the goroutine whose CAS succeeds
// calls OnStateChange, so a transition fires exactly once no matter how
// many goroutines race to trigger it. The breaker has no telemetry.Sink and
// emits no PolicyEvent values for its transitions; OnStateChange is the only
// signal it gives.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	clock       Clock
	maxFailures *AtomicDynamicConfig[int]

	state         atomic.Int32
	failureCount  atomic.Int64
	openedAtMs    atomic.Int64
	halfOpenCalls atomic.Int64
}

// NewCircuitBreaker creates a CircuitBreaker, applying defaults for
// zero-value fields. Returns a config error if an explicitly-set field is
// invalid (negative thresholds).
func NewCircuitBreaker(config CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config.MaxFailures < 0 {
		return nil, ErrMaxFailuresMustBePositive
	}
	if config.MaxFailures == 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout < 0 {
		return nil, ErrRecoveryTimeoutMustBePositive
	}
	if config.ResetTimeout == 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests < 0 {
		return nil, ErrHalfOpenMaxMustBePositive
	}
	if config.HalfOpenMaxRequests == 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.Clock == nil {
		config.Clock = NewMonotonicClock()
	}

	return &CircuitBreaker{
		config:      config,
		clock:       config.Clock,
		maxFailures: NewAtomicDynamicConfig(config.MaxFailures),
	}, nil
}

// MaxFailures exposes the live-tunable failure threshold. Changing it takes
// effect on the next failure recorded while Closed.
func (cb *CircuitBreaker) MaxFailures() DynamicConfig[int] {
	return cb.maxFailures
}

// State returns the breaker's current state, resolving an Open->HalfOpen
// transition if the recovery timeout has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	state, _ := cb.resolveState()
	return state
}

// Reset forces the breaker back to Closed, clearing all counters. Intended
// for operator intervention (see Registry.Reset), not for use inside the
// normal call path.
func (cb *CircuitBreaker) Reset() {
	old := CircuitState(cb.state.Swap(int32(StateClosed)))
	cb.failureCount.Store(0)
	cb.halfOpenCalls.Store(0)
	if old != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(old, StateClosed)
	}
}

// Metrics returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	state, _ := cb.resolveState()
	return CircuitBreakerMetrics{
		State:        state,
		FailureCount: int(cb.failureCount.Load()),
	}
}

// CircuitBreakerMetrics is a point-in-time snapshot of breaker counters.
type CircuitBreakerMetrics struct {
	State        CircuitState
	FailureCount int
}

// resolveState returns the current state, performing the lazy Open->HalfOpen
// transition if the recovery timeout has elapsed since opened_at. justTransitioned
// reports whether this call is the one that won that transition; such a call
// counts as the first half-open probe and beforeCall must admit it directly
// rather than running it back through the probe-budget loop, since the slot
// it claims has already been accounted for here.
func (cb *CircuitBreaker) resolveState() (state CircuitState, justTransitioned bool) {
	current := CircuitState(cb.state.Load())
	if current != StateOpen {
		return current, false
	}

	openedAt := cb.openedAtMs.Load()
	elapsed := time.Duration(int64(cb.clock.NowMillis())-openedAt) * time.Millisecond
	if elapsed < cb.config.ResetTimeout {
		return StateOpen, false
	}

	if cb.state.CompareAndSwap(int32(StateOpen), int32(StateHalfOpen)) {
		// This call wins the transition and is itself counted as the first
		// half-open probe.
		cb.halfOpenCalls.Store(1)
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
		return StateHalfOpen, true
	}
	// Another goroutine won the race; observe whatever it left behind.
	return CircuitState(cb.state.Load()), false
}

// beforeCall admits or rejects a call, incrementing half-open probe
// accounting when admitting a HalfOpen call that did not itself cause the
// Open->HalfOpen transition. On rejection it reports the failure count and
// open duration to embed in a CircuitOpenErr of the caller's own error type.
func (cb *CircuitBreaker) beforeCall() (rejected bool, failureCount int, openDuration time.Duration) {
	state, justTransitioned := cb.resolveState()
	switch state {
	case StateOpen:
		openedAt := cb.openedAtMs.Load()
		d := time.Duration(int64(cb.clock.NowMillis())-openedAt) * time.Millisecond
		return true, int(cb.failureCount.Load()), d
	case StateHalfOpen:
		if justTransitioned {
			// The slot for this call was already claimed in resolveState.
			return false, 0, 0
		}
		for {
			calls := cb.halfOpenCalls.Load()
			if calls >= int64(cb.config.HalfOpenMaxRequests) {
				openedAt := cb.openedAtMs.Load()
				d := time.Duration(int64(cb.clock.NowMillis())-openedAt) * time.Millisecond
				return true, int(cb.failureCount.Load()), d
			}
			if cb.halfOpenCalls.CompareAndSwap(calls, calls+1) {
				return false, 0, 0
			}
		}
	default:
		return false, 0, 0
	}
}

// afterCall updates breaker state following a completed call.
func (cb *CircuitBreaker) afterCall(failed bool) {
	state := CircuitState(cb.state.Load())
	switch state {
	case StateClosed:
		if failed {
			newCount := cb.failureCount.Add(1)
			if int(newCount) >= cb.maxFailures.Get() {
				if cb.state.CompareAndSwap(int32(StateClosed), int32(StateOpen)) {
					cb.openedAtMs.Store(int64(cb.clock.NowMillis()))
					cb.halfOpenCalls.Store(0)
					if cb.config.OnStateChange != nil {
						cb.config.OnStateChange(StateClosed, StateOpen)
					}
				}
			}
		} else {
			cb.failureCount.Store(0)
		}
	case StateHalfOpen:
		if failed {
			if cb.state.CompareAndSwap(int32(StateHalfOpen), int32(StateOpen)) {
				cb.openedAtMs.Store(int64(cb.clock.NowMillis()))
				if cb.config.OnStateChange != nil {
					cb.config.OnStateChange(StateHalfOpen, StateOpen)
				}
			}
		} else {
			if cb.state.CompareAndSwap(int32(StateHalfOpen), int32(StateClosed)) {
				cb.failureCount.Store(0)
				if cb.config.OnStateChange != nil {
					cb.config.OnStateChange(StateHalfOpen, StateClosed)
				}
			}
		}
	}
}

// CircuitBreakerExecute admits or rejects a call per the breaker's current
// state, then records the outcome. A nil IsFailure classifier treats any
// non-nil *ResilienceError as a failure; pass a custom classifier to, for
// instance, exclude RateLimited from counting against the breaker.
func CircuitBreakerExecute[T any, E error](ctx context.Context, cb *CircuitBreaker, isFailure func(*ResilienceError[E]) bool, op func(context.Context) (T, *ResilienceError[E])) (T, *ResilienceError[E]) {
	var zero T

	if rejected, failureCount, openDuration := cb.beforeCall(); rejected {
		return zero, CircuitOpenErr[E](failureCount, openDuration)
	}

	v, resErr := op(ctx)

	failed := resErr != nil
	if failed && isFailure != nil {
		failed = isFailure(resErr)
	}
	cb.afterCall(failed)

	return v, resErr
}

// Package resilience provides generic, composable resilience policies for
// guarding calls to unreliable dependencies.
//
// Each policy (Retry, Timeout, Bulkhead, CircuitBreaker, TokenBucketLimiter)
// is a standalone value constructed from a Config struct; none of them
// depend on the others. Callers invoke a policy's associated Execute free
// function, passing an operation that returns (T, *ResilienceError[E]).
// Execute is a free function rather than a method because Go forbids a
// method from introducing its own type parameters, and the operation's
// success type T varies per call site while the policy's error type E is
// fixed at construction.
//
// # Ecosystem Position
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Call Execution Flow                        │
//	├─────────────────────────────────────────────────────────────────┤
//	│                                                                 │
//	│   caller            resilience               external          │
//	│   ┌──────┐        ┌────────────┐           ┌─────────┐         │
//	│   │ op() │───────▶│   Stack    │──────────▶│ service │         │
//	│   └──────┘        │            │           │  (API)  │         │
//	│                   │ ┌────────┐ │           └─────────┘         │
//	│                   │ │ Retry  │ │                                │
//	│                   │ ├────────┤ │                                │
//	│                   │ │Circuit │ │                                │
//	│                   │ ├────────┤ │                                │
//	│                   │ │Bulkhd  │ │                                │
//	│                   │ ├────────┤ │                                │
//	│                   │ │Timeout │ │                                │
//	│                   │ └────────┘ │                                │
//	│                   └────────────┘                                │
//	│                                                                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Patterns
//
//   - [CircuitBreaker]: stops calling a failing dependency once a failure
//     threshold trips, probing recovery via a bounded number of HalfOpen
//     calls. State is held in atomics; transitions between distinguished
//     states use compare-and-swap so exactly one goroutine emits each edge.
//
//   - [Retry]: re-invokes a failed operation with Backoff-computed,
//     Jitter-randomized delays between attempts, stopping at the first
//     success, the first non-retryable failure, or attempt exhaustion.
//
//   - [TokenBucketLimiter]: token-bucket rate limiting against a pluggable
//     TokenStore, with an optimistic compare-and-set commit.
//
//   - [Bulkhead]: caps concurrent in-flight calls with a non-blocking
//     permit pool (golang.org/x/sync/semaphore.Weighted); acquisition
//     never queues.
//
//   - [Timeout]: bounds how long a single operation is allowed to run.
//
//   - [Stack]: the fixed composition Retry → CircuitBreaker → Bulkhead →
//     Timeout → operation, for the common case of wanting all four without
//     hand-wiring them. [Sequential], [Fallback], and [Hedge] build other
//     compositions from [Layer] values.
//
// # Quick Start
//
//	cb, _ := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: time.Minute,
//	})
//
//	result, resErr := resilience.CircuitBreakerExecute[Response, error](ctx, cb, nil,
//	    func(ctx context.Context) (Response, *resilience.ResilienceError[error]) {
//	        resp, err := callExternalService(ctx)
//	        if err != nil {
//	            return Response{}, resilience.InnerErr[error](err)
//	        }
//	        return resp, nil
//	    })
//
//	// Composed via Stack
//	stack, _ := resilience.NewStack(resilience.StackConfig[error]{})
//	result, resErr = resilience.StackExecute[Response, error](ctx, stack, op)
//
// # Thread Safety
//
// All exported types are safe for concurrent use after construction:
//
//   - [CircuitBreaker]: state, counters are atomic; CAS guards every edge
//   - [Retry]: stateless per call except for a DecorrelatedJitter's shared
//     atomic sequence counter, which is itself safe under concurrent use
//   - [Bulkhead]: permits are a semaphore.Weighted; ActiveCount is atomic
//   - [Timeout]: stateless
//   - [TokenBucketLimiter]: delegates concurrency safety to its TokenStore
//   - [Registry]: mutex-protected
//
// # Error Handling
//
// Every policy returns a *[ResilienceError][E], a tagged union distinguishing
// Timeout, Bulkhead, BulkheadClosed, CircuitOpen, RetryExhausted, RateLimited,
// and Inner (the operation's own error, of type E) variants. Use the
// Is*/As* predicate and accessor methods rather than errors.Is/As directly
// against sentinel values:
//
//	result, resErr := resilience.CircuitBreakerExecute(ctx, cb, nil, op)
//	if resErr != nil {
//	    if resErr.IsCircuitOpen() {
//	        openFor, _ := resErr.CircuitOpenDuration()
//	        log.Warn("circuit open", "for", openFor)
//	        return fallbackResult, nil
//	    }
//	    if inner, ok := resErr.AsInner(); ok {
//	        return handleDomainError(inner)
//	    }
//	}
//
// # Callbacks and Observability
//
// Patterns support callbacks for observability integration:
//
//   - CircuitBreakerConfig.OnStateChange: called on state transitions, by
//     whichever goroutine won the CAS for that edge
//   - RetryConfig.OnRetry: called before each retry sleep
//   - RetryConfig.ShouldRetry: custom retry decision logic over E
//
// # Integration
//
//   - observe: wrap an observe.ExecuteFunc that calls a Stack or individual
//     policy with observe.Middleware to get tracing and metrics around it
//   - health: health.CircuitBreakerChecker and health.BulkheadChecker adapt
//     a Registry/Bulkhead into the health.Checker interface
//   - telemetry: Retry, Bulkhead, Timeout, and Stack each accept a
//     telemetry.Sink (RetryConfig.Sink, Bulkhead.SetSink, Timeout.SetSink,
//     StackConfig.Sink) and emit PolicyEvent values directly on their own
//     call paths; CircuitBreakerConfig.OnStateChange remains a plain
//     callback since a circuit transition's edge is already exposed there
package resilience

// Package telemetry defines the structured events emitted by resilience
// policies and a set of Sink implementations for consuming them.
//
// It has no dependency on the resilience package itself: a PolicyEvent is a
// plain value. Retry, Bulkhead, Timeout, and Stack in the resilience package
// emit PolicyEvent values to a configured Sink (NullSink by default); the
// circuit breaker does not, so wiring its OnStateChange callback to
// construct an event and hand it to a Sink is the caller's job.
//
// # Events
//
// [PolicyEvent] is a tagged union implemented as a struct, the same pattern
// resilience.ResilienceError uses: construct one with a New*Event function
// and read it back with the Is*/As* predicate and accessor methods. The ten
// variants cover every transition a policy can report:
//
//	Retry::Attempt, Retry::Exhausted
//	CircuitBreaker::Opened, CircuitBreaker::HalfOpen, CircuitBreaker::Closed
//	Bulkhead::Acquired, Bulkhead::Rejected
//	Timeout::Occurred
//	Request::Success, Request::Failure
//
// # Sinks
//
// [Sink] consumes events; implementations must be safe for concurrent Emit
// calls since a Stack's policies run calls from many goroutines at once.
//
//   - [NullSink]: discards everything, for call sites with telemetry
//     disabled
//   - [LogSink]: writes each event through an observe.Logger
//   - [MemorySink]: bounded ring buffer, useful for tests and short-lived
//     debug sessions
//   - [StreamingSink]: fans events out to dynamically registered
//     subscriber channels, dropping for any subscriber that falls behind
//   - [NonBlockingSink]: offloads delivery to a worker goroutine so Emit
//     never blocks the calling policy, dropping on a full queue
//   - [MulticastSink]: delivers to two sinks, joining their errors
//   - [FallbackSink]: delivers to a primary sink, retrying a secondary
//     only if the primary fails
//
// # Quick Start
//
//	sink := telemetry.NewMemorySink()
//
//	cb, _ := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    OnStateChange: func(from, to resilience.CircuitState) {
//	        if to == resilience.StateOpen {
//	            telemetry.EmitBestEffort(ctx, sink, telemetry.NewCircuitOpenedEvent(0))
//	        }
//	    },
//	})
//
// # Thread Safety
//
// Every Sink implementation is safe for concurrent Emit; MemorySink,
// StreamingSink, and NonBlockingSink additionally expose safe concurrent
// reads of their accumulated state (Events, Subscribe, Dropped, and so on).
package telemetry

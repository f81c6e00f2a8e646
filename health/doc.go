// Package health provides health checking primitives for guarded operations.
//
// It implements a generic health checking framework for monitoring component
// health alongside the resilience package's policies. The package provides interfaces for defining
// health checks, aggregating results from multiple checkers, and exposing
// health status via HTTP endpoints compatible with Kubernetes probes.
//
// # Ecosystem Position
//
// health integrates with service mesh and orchestration systems:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     Health Check Architecture                   │
//	├─────────────────────────────────────────────────────────────────┤
//	│                                                                 │
//	│   Kubernetes          health              Components            │
//	│   ┌─────────┐      ┌───────────┐        ┌───────────────┐      │
//	│   │Liveness │─────▶│  HTTP     │        │CircuitBreaker │      │
//	│   │ Probe   │      │ Handlers  │        │   Checker     │      │
//	│   ├─────────┤      │           │        ├───────────────┤      │
//	│   │Readiness│─────▶│ /healthz  │◀───────│   Bulkhead    │      │
//	│   │ Probe   │      │ /readyz   │        │   Checker     │      │
//	│   └─────────┘      │ /health   │        ├───────────────┤      │
//	│                    │           │        │  CheckerFunc  │      │
//	│   Load Balancer    │ ┌───────┐ │        │ (caller-owned)│      │
//	│   ┌─────────┐      │ │Aggreg-│◀┼────────┴───────────────┘      │
//	│   │ Health  │─────▶│ │ ator  │ │                                │
//	│   │ Checks  │      │ └───────┘ │                                │
//	│   └─────────┘      └───────────┘                                │
//	│                                                                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Status Types
//
// The [Status] type represents component health:
//
//   - [StatusHealthy]: Component is functioning normally
//   - [StatusDegraded]: Component is functioning but with issues
//   - [StatusUnhealthy]: Component is not functioning properly
//
// # Core Components
//
//   - [Checker]: Interface for health checks (Name() + Check())
//   - [CheckerFunc]: Adapter for function-based checkers
//   - [Result]: Health check outcome with status, message, details, duration
//   - [Aggregator]: Combines multiple checkers into composite health
//   - [CircuitBreakerChecker]: Reports the worst breaker state in a resilience.Registry
//   - [BulkheadChecker]: Reports a Bulkhead's concurrency saturation
//
// # Quick Start
//
//	// Adapt resilience state into checkers
//	breakerCheck := health.NewCircuitBreakerChecker("circuit_breakers", registry)
//	bulkheadCheck := health.NewBulkheadChecker("workers", bulkhead, health.BulkheadCheckerConfig{})
//
//	// Create aggregator
//	agg := health.NewAggregator()
//	agg.Register("circuit_breakers", breakerCheck)
//	agg.Register("workers", bulkheadCheck)
//
//	// Check all components
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides Kubernetes-compatible HTTP handlers:
//
//   - [LivenessHandler]: Simple /healthz endpoint - always returns 200 if running
//   - [ReadinessHandler]: Runs all checks, returns 503 if any unhealthy
//   - [DetailedHandler]: Returns JSON with full check details
//   - [SingleCheckHandler]: Check a specific component by name
//   - [RegisterHandlers]: Convenience function to register all handlers
//
// Example registration:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, aggregator)
//	// Registers: /healthz, /readyz, /health
//
// # Aggregation Behavior
//
// The [Aggregator] computes overall status using worst-case logic:
//
//   - If ANY check is Unhealthy → overall Unhealthy
//   - If ANY check is Degraded (and none Unhealthy) → overall Degraded
//   - If ALL checks are Healthy → overall Healthy
//
// Checks can run in parallel (default) or sequentially via [AggregatorConfig].
//
// # Thread Safety
//
// All exported types are safe for concurrent use:
//
//   - [Aggregator]: sync.RWMutex protects registration and check execution
//   - [CircuitBreakerChecker], [BulkheadChecker]: stateless, read the underlying
//     resilience type's own concurrency-safe accessors on every Check
//   - [CheckerFunc]: Delegates to user function, ensure your function is safe
//   - [Result]: Immutable after creation
//
// # Error Handling
//
// Sentinel errors (use errors.Is for checking):
//
//   - [ErrCheckFailed]: Generic health check failure
//   - [ErrCheckTimeout]: Check exceeded timeout
//   - [ErrCheckerNotFound]: Named checker not registered
//   - [ErrNoCheckers]: No checkers registered in aggregator
//
// # Integration
//
// health connects to:
//
//   - resilience: CircuitBreakerChecker wraps a resilience.Registry and
//     BulkheadChecker wraps a resilience.Bulkhead to expose breaker and
//     bulkhead state as Checkers
//   - HTTP servers: RegisterHandlers exposes Kubernetes-compatible probes
package health

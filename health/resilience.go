package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ninelives/resilience"
)

// CircuitBreakerChecker reports the aggregate state of every breaker in a
// resilience.Registry as a single Result. Any open breaker marks the
// component Unhealthy; any half-open breaker (with none open) marks it
// Degraded; all closed is Healthy.
type CircuitBreakerChecker struct {
	name     string
	registry *resilience.Registry
}

// NewCircuitBreakerChecker creates a checker over registry reported under name.
func NewCircuitBreakerChecker(name string, registry *resilience.Registry) *CircuitBreakerChecker {
	return &CircuitBreakerChecker{name: name, registry: registry}
}

// Name returns the name of this checker.
func (c *CircuitBreakerChecker) Name() string {
	return c.name
}

// Check inspects every registered breaker and reports the worst observed state.
func (c *CircuitBreakerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	snapshot := c.registry.Snapshot()
	details := make(map[string]any, len(snapshot))
	var open, halfOpen int
	for _, status := range snapshot {
		details[status.ID] = status.State.String()
		switch status.State {
		case resilience.StateOpen:
			open++
		case resilience.StateHalfOpen:
			halfOpen++
		}
	}

	if open > 0 {
		return Unhealthy(
			fmt.Sprintf("%d circuit breaker(s) open", open),
			ErrCheckFailed,
		).WithDetails(details)
	}
	if halfOpen > 0 {
		return Degraded(
			fmt.Sprintf("%d circuit breaker(s) half-open", halfOpen),
		).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d circuit breaker(s) closed", len(snapshot))).WithDetails(details)
}

// BulkheadCheckerConfig configures the thresholds at which bulkhead
// saturation is reported as degraded or unhealthy.
type BulkheadCheckerConfig struct {
	// WarningThreshold is the fraction of capacity in use that triggers
	// degraded status. Default: 0.8.
	WarningThreshold float64

	// CriticalThreshold is the fraction of capacity in use that triggers
	// unhealthy status. Default: 1.0 (fully saturated).
	CriticalThreshold float64
}

// BulkheadChecker reports a Bulkhead's concurrency saturation.
type BulkheadChecker struct {
	name     string
	bulkhead *resilience.Bulkhead
	config   BulkheadCheckerConfig
}

// NewBulkheadChecker creates a checker over bulkhead reported under name.
func NewBulkheadChecker(name string, bulkhead *resilience.Bulkhead, config BulkheadCheckerConfig) *BulkheadChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold > 1 {
		config.CriticalThreshold = 1.0
	}
	return &BulkheadChecker{name: name, bulkhead: bulkhead, config: config}
}

// Name returns the name of this checker.
func (c *BulkheadChecker) Name() string {
	return c.name
}

// Check reports the bulkhead's current saturation against its configured
// thresholds.
func (c *BulkheadChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	active := c.bulkhead.ActiveCount()
	max := c.bulkhead.MaxConcurrent().Get()

	details := map[string]any{
		"active": active,
		"max":    max,
	}

	usageRatio := float64(active) / float64(max)
	details["usage_percent"] = usageRatio * 100

	if usageRatio >= c.config.CriticalThreshold {
		return Unhealthy(
			fmt.Sprintf("bulkhead saturated: %d/%d", active, max),
			ErrCheckFailed,
		).WithDetails(details)
	}
	if usageRatio >= c.config.WarningThreshold {
		return Degraded(
			fmt.Sprintf("bulkhead near capacity: %d/%d", active, max),
		).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("bulkhead usage normal: %d/%d", active, max)).WithDetails(details)
}

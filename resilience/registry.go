package resilience

import (
	"fmt"
	"sort"
	"sync"
)

// BreakerStatus is one entry of a Registry snapshot.
type BreakerStatus struct {
	ID    string
	State CircuitState
}

// Registry tracks named CircuitBreaker instances so an operator surface
// (a health check, an admin endpoint) can look one up, force-reset it, or
// list every breaker's current state without the caller needing to plumb
// individual *CircuitBreaker references through to that surface.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// Register associates id with breaker, replacing any previous registration
// under the same id.
func (r *Registry) Register(id string, breaker *CircuitBreaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[id] = breaker
}

// Get returns the breaker registered under id, if any.
func (r *Registry) Get(id string) (*CircuitBreaker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[id]
	return b, ok
}

// Reset force-resets the breaker registered under id. Returns
// ErrBreakerNotFound if no breaker is registered under that id.
func (r *Registry) Reset(id string) error {
	b, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBreakerNotFound, id)
	}
	b.Reset()
	return nil
}

// Snapshot returns every registered breaker's id and current state, sorted
// by id.
func (r *Registry) Snapshot() []BreakerStatus {
	r.mu.Lock()
	ids := make([]string, 0, len(r.breakers))
	breakers := make(map[string]*CircuitBreaker, len(r.breakers))
	for id, b := range r.breakers {
		ids = append(ids, id)
		breakers[id] = b
	}
	r.mu.Unlock()

	sort.Strings(ids)
	statuses := make([]BreakerStatus, 0, len(ids))
	for _, id := range ids {
		statuses = append(statuses, BreakerStatus{ID: id, State: breakers[id].State()})
	}
	return statuses
}

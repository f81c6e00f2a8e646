package resilience

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{})
	r.Register("payments", cb)

	got, ok := r.Get("payments")
	if !ok || got != cb {
		t.Errorf("Get() = (%v, %v), want the registered breaker", got, ok)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	cb1, _ := NewCircuitBreaker(CircuitBreakerConfig{})
	cb2, _ := NewCircuitBreaker(CircuitBreakerConfig{})

	r.Register("payments", cb1)
	r.Register("payments", cb2)

	got, _ := r.Get("payments")
	if got != cb2 {
		t.Error("Register did not replace the prior registration")
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	r.Register("billing", cb)

	CircuitBreakerExecute[struct{}, error](context.Background(), cb, nil, func(ctx context.Context) (struct{}, *ResilienceError[error]) {
		return struct{}{}, InnerErr[error](errors.New("fail"))
	})
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want StateOpen before reset", cb.State())
	}

	if err := r.Reset("billing"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want StateClosed after reset", cb.State())
	}
}

func TestRegistry_ResetNotFound(t *testing.T) {
	r := NewRegistry()
	if err := r.Reset("missing"); !errors.Is(err, ErrBreakerNotFound) {
		t.Errorf("Reset(missing): err = %v, want ErrBreakerNotFound", err)
	}
}

func TestRegistry_SnapshotSortedByID(t *testing.T) {
	r := NewRegistry()
	cbSearch, _ := NewCircuitBreaker(CircuitBreakerConfig{})
	cbBilling, _ := NewCircuitBreaker(CircuitBreakerConfig{})
	cbAuth, _ := NewCircuitBreaker(CircuitBreakerConfig{})

	r.Register("search", cbSearch)
	r.Register("billing", cbBilling)
	r.Register("auth", cbAuth)

	snapshot := r.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("len(snapshot) = %d, want 3", len(snapshot))
	}
	wantOrder := []string{"auth", "billing", "search"}
	for i, want := range wantOrder {
		if snapshot[i].ID != want {
			t.Errorf("snapshot[%d].ID = %q, want %q", i, snapshot[i].ID, want)
		}
		if snapshot[i].State != StateClosed {
			t.Errorf("snapshot[%d].State = %v, want StateClosed", i, snapshot[i].State)
		}
	}
}

func TestRegistry_SnapshotEmpty(t *testing.T) {
	r := NewRegistry()
	snapshot := r.Snapshot()
	if len(snapshot) != 0 {
		t.Errorf("len(snapshot) = %d, want 0", len(snapshot))
	}
}

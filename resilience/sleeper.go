package resilience

import (
	"context"
	"sync"
	"time"
)

// Sleeper suspends the caller for a duration. The retry engine uses it
// instead of calling time.Sleep directly so tests can swap in an
// instantaneous or recording implementation.
//
// Contract:
//   - Zero or negative durations are a no-op.
//   - Very large durations must not panic.
//   - If ctx is canceled before the duration elapses, Sleep returns
//     ctx.Err() promptly instead of waiting out the full duration.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper suspends using the runtime timer.
type RealSleeper struct{}

// NewRealSleeper returns the production Sleeper.
func NewRealSleeper() RealSleeper { return RealSleeper{} }

// Sleep blocks for d or until ctx is done, whichever comes first.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctxErr(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// InstantSleeper returns immediately regardless of the requested duration.
// It is a test helper for exercising retry loops without real delay.
type InstantSleeper struct{}

// NewInstantSleeper returns a Sleeper that never actually waits.
func NewInstantSleeper() InstantSleeper { return InstantSleeper{} }

// Sleep returns immediately, still honoring context cancellation.
func (InstantSleeper) Sleep(ctx context.Context, d time.Duration) error {
	return ctxErr(ctx)
}

// RecordingSleeper is an InstantSleeper that additionally appends every
// requested duration to a shared, mutex-protected log. It is safe to share
// across concurrently-running operations, which lets a single instance
// observe interleaved sleep requests from multiple retry loops in a test.
type RecordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

// NewRecordingSleeper creates an empty RecordingSleeper.
func NewRecordingSleeper() *RecordingSleeper {
	return &RecordingSleeper{}
}

// Sleep records d and returns immediately.
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return nil
}

// Calls returns a snapshot of every duration requested so far, in order.
func (s *RecordingSleeper) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.calls))
	copy(out, s.calls)
	return out
}

// Clear empties the recorded call log.
func (s *RecordingSleeper) Clear() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

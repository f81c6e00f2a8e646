package resilience

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/jonwraymond/ninelives/telemetry"
)

// unlimitedPermits is the weight used by Bulkhead instances constructed with
// BulkheadUnlimited; it is large enough that no realistic caller count will
// ever exhaust it.
const unlimitedPermits = math.MaxInt64

// Bulkhead caps concurrent in-flight operations with a non-blocking permit
// pool: acquisition never queues, so a caller either gets a permit
// immediately or is rejected immediately.
//
// The permit primitive is golang.org/x/sync/semaphore.Weighted, an
// explicitly constructed handle that can be shared across multiple
// Bulkhead-wrapped call sites. Construct one Weighted and pass it to
// NewSharedBulkhead from each site to share capacity; NewBulkhead always
// allocates a fresh, unshared pool.
type Bulkhead struct {
	sem           *semaphore.Weighted
	maxConcurrent *AtomicDynamicConfig[int]
	active        atomic.Int64
	closed        atomic.Bool
	sink          telemetry.Sink
}

// NewBulkhead creates a Bulkhead with its own permit pool of maxConcurrent
// permits. Returns ErrMaxConcurrentMustBePositive if maxConcurrent <= 0.
func NewBulkhead(maxConcurrent int) (*Bulkhead, error) {
	if maxConcurrent <= 0 {
		return nil, ErrMaxConcurrentMustBePositive
	}
	return newBulkhead(semaphore.NewWeighted(int64(maxConcurrent)), maxConcurrent), nil
}

// NewSharedBulkhead wraps an externally constructed semaphore.Weighted so
// multiple Bulkhead values can share one permit pool. capacityHint should
// match the weight the semaphore was constructed with; it is used only for
// the Bulkhead{in_flight,max} error payload and MaxConcurrent reporting.
func NewSharedBulkhead(sem *semaphore.Weighted, capacityHint int) *Bulkhead {
	return newBulkhead(sem, capacityHint)
}

// BulkheadUnlimited creates a Bulkhead that never rejects on capacity
// grounds, for call sites that want the Close/telemetry surface of a
// bulkhead without an actual concurrency cap.
func BulkheadUnlimited() *Bulkhead {
	return newBulkhead(semaphore.NewWeighted(unlimitedPermits), math.MaxInt)
}

func newBulkhead(sem *semaphore.Weighted, maxConcurrent int) *Bulkhead {
	return &Bulkhead{
		sem:           sem,
		maxConcurrent: NewAtomicDynamicConfig(maxConcurrent),
		sink:          telemetry.NullSink{},
	}
}

// SetSink wires sink to receive Acquired/Rejected events for every
// subsequent BulkheadExecute call. Default: telemetry.NullSink{}.
func (b *Bulkhead) SetSink(sink telemetry.Sink) {
	b.sink = sink
}

// MaxConcurrent exposes the live-tunable capacity reported in rejection
// errors. Tuning it does not resize the underlying semaphore (Weighted has
// no resize operation); it only affects the "max" figure subsequent
// rejections report and is intended for semaphores whose true capacity is
// itself controlled externally via NewSharedBulkhead.
func (b *Bulkhead) MaxConcurrent() DynamicConfig[int] {
	return b.maxConcurrent
}

// Close shuts the permit pool down permanently. Every subsequent
// acquisition attempt returns BulkheadClosed rather than Bulkhead, even if
// permits are nominally available.
func (b *Bulkhead) Close() {
	b.closed.Store(true)
}

// ActiveCount returns a best-effort snapshot of in-flight operations.
func (b *Bulkhead) ActiveCount() int {
	return int(b.active.Load())
}

// BulkheadExecute acquires a permit non-blockingly and runs op, releasing
// the permit when op returns or ctx is canceled mid-flight. It never queues:
// if no permit is immediately available, it returns a Bulkhead error without
// invoking op.
func BulkheadExecute[T any, E error](ctx context.Context, b *Bulkhead, op func(context.Context) (T, *ResilienceError[E])) (T, *ResilienceError[E]) {
	var zero T

	if b.closed.Load() {
		return zero, BulkheadClosedErr[E]()
	}

	if !b.sem.TryAcquire(1) {
		max := b.maxConcurrent.Get()
		telemetry.EmitBestEffort(ctx, b.sink, telemetry.NewBulkheadRejectedEvent(b.ActiveCount(), max))
		return zero, BulkheadErr[E](b.ActiveCount(), max)
	}

	active := b.active.Add(1)
	telemetry.EmitBestEffort(ctx, b.sink, telemetry.NewBulkheadAcquiredEvent(int(active), b.maxConcurrent.Get()))
	defer func() {
		b.active.Add(-1)
		b.sem.Release(1)
	}()

	return op(ctx)
}

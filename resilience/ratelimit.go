package resilience

import (
	"context"
	"sync"
	"time"
)

// TokenStore abstracts the storage backing a TokenBucketLimiter's per-key
// state, so the limiter itself doesn't care whether buckets live in local
// memory or a distributed store with its own CAS primitive.
type TokenStore interface {
	// GetState returns the current (tokens, lastUpdatedNanos) for key, or
	// ok=false if key has never been written.
	GetState(ctx context.Context, key string) (tokens float64, lastUpdatedNanos uint64, ok bool, err error)

	// SetState writes (tokens, updatedAtNanos) for key, optimistically
	// guarded by prevUpdatedNanos: the write only takes effect if the
	// stored lastUpdatedNanos still equals prevUpdatedNanos (or the key is
	// unset and hadPrev is false). Returns committed=false, no error, on a
	// detected race; the caller is expected to retry.
	SetState(ctx context.Context, key string, tokens float64, updatedAtNanos uint64, prevUpdatedNanos uint64, hadPrev bool) (committed bool, err error)
}

// InMemoryStore is a TokenStore backed by a mutex-guarded map, suitable for
// a rate limiter scoped to a single process.
type InMemoryStore struct {
	mu   sync.Mutex
	data map[string]tokenState
}

type tokenState struct {
	tokens    float64
	updatedAt uint64
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]tokenState)}
}

// GetState implements TokenStore.
func (s *InMemoryStore) GetState(_ context.Context, key string) (float64, uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data[key]
	if !ok {
		return 0, 0, false, nil
	}
	return st.tokens, st.updatedAt, true, nil
}

// SetState implements TokenStore.
func (s *InMemoryStore) SetState(_ context.Context, key string, tokens float64, updatedAt uint64, prevUpdatedAt uint64, hadPrev bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[key]
	if hadPrev {
		if exists && current.updatedAt != prevUpdatedAt {
			return false, nil
		}
	} else if exists {
		// The caller observed no prior state and is using "now" as its
		// baseline; a concurrent writer has since created the key, so
		// that's a race the caller must retry against.
		return false, nil
	}

	s.data[key] = tokenState{tokens: tokens, updatedAt: updatedAt}
	return true, nil
}

// Decision is the outcome of a TokenBucketLimiter.Acquire call.
type Decision struct {
	Allowed   bool
	Remaining float64
	Wait      time.Duration
	Reason    string
}

// TokenBucketLimiterConfig configures a TokenBucketLimiter.
type TokenBucketLimiterConfig struct {
	// Rate is the refill rate in tokens per second. Default: 10.
	Rate float64
	// Capacity is the bucket's maximum token count. Default: 10.
	Capacity float64
	// Store holds per-key bucket state. Default: a fresh InMemoryStore.
	Store TokenStore
	// Clock supplies the current time for elapsed-time computation.
	// Default: MonotonicClock.
	Clock Clock
	// MaxCommitRetries bounds the optimistic-commit retry loop before
	// Acquire gives up and returns a Denied decision with reason
	// "store_contention". Default: 3.
	MaxCommitRetries int
}

// TokenBucketLimiter implements the token bucket algorithm against a
// pluggable TokenStore, with rate and capacity both live-tunable via
// DynamicConfig.
type TokenBucketLimiter struct {
	rate             *AtomicDynamicConfig[float64]
	capacity         *AtomicDynamicConfig[float64]
	store            TokenStore
	clock            Clock
	maxCommitRetries int
}

// NewTokenBucketLimiter constructs a TokenBucketLimiter, applying defaults
// for zero-value fields. Returns ErrRateMustBePositive or
// ErrCapacityMustBePositive if an explicitly-set field is negative.
func NewTokenBucketLimiter(config TokenBucketLimiterConfig) (*TokenBucketLimiter, error) {
	if config.Rate < 0 {
		return nil, ErrRateMustBePositive
	}
	if config.Rate == 0 {
		config.Rate = 10
	}
	if config.Capacity < 0 {
		return nil, ErrCapacityMustBePositive
	}
	if config.Capacity == 0 {
		config.Capacity = 10
	}
	if config.Store == nil {
		config.Store = NewInMemoryStore()
	}
	if config.Clock == nil {
		config.Clock = NewMonotonicClock()
	}
	if config.MaxCommitRetries == 0 {
		config.MaxCommitRetries = 3
	}

	return &TokenBucketLimiter{
		rate:             NewAtomicDynamicConfig(config.Rate),
		capacity:         NewAtomicDynamicConfig(config.Capacity),
		store:            config.Store,
		clock:            config.Clock,
		maxCommitRetries: config.MaxCommitRetries,
	}, nil
}

// Rate exposes the live-tunable refill rate.
func (l *TokenBucketLimiter) Rate() DynamicConfig[float64] { return l.rate }

// Capacity exposes the live-tunable bucket capacity.
func (l *TokenBucketLimiter) Capacity() DynamicConfig[float64] { return l.capacity }

// Acquire attempts to take permits tokens from key's bucket, refilling it
// first based on elapsed time since the last recorded update. An absent key
// is treated as a full bucket. The commit is optimistic: it races against
// concurrent acquirers via the store's CAS semantics and retries up to
// MaxCommitRetries times on contention.
func (l *TokenBucketLimiter) Acquire(ctx context.Context, key string, permits float64) (Decision, error) {
	rate := l.rate.Get()
	capacity := l.capacity.Get()
	nowNanos := uint64(l.clock.NowMillis()) * uint64(time.Millisecond)

	for attempt := 0; attempt < l.maxCommitRetries; attempt++ {
		tokens, lastUpdated, hadPrev, err := l.store.GetState(ctx, key)
		if err != nil {
			return Decision{}, err
		}
		if !hadPrev {
			tokens = capacity
			lastUpdated = nowNanos
		}

		elapsedSeconds := 0.0
		if nowNanos > lastUpdated {
			elapsedSeconds = float64(nowNanos-lastUpdated) / float64(time.Second)
		}
		refilled := tokens + elapsedSeconds*rate
		if refilled > capacity {
			refilled = capacity
		}

		if refilled >= permits {
			committed, err := l.store.SetState(ctx, key, refilled-permits, nowNanos, lastUpdated, hadPrev)
			if err != nil {
				return Decision{}, err
			}
			if committed {
				return Decision{Allowed: true, Remaining: refilled - permits}, nil
			}
			continue
		}

		waitSeconds := (permits - refilled) / rate
		return Decision{
			Allowed: false,
			Wait:    time.Duration(waitSeconds * float64(time.Second)),
			Reason:  "insufficient_tokens",
		}, nil
	}

	return Decision{Allowed: false, Reason: "store_contention"}, nil
}

// RateLimiterExecute acquires one permit under key and, if allowed, runs op.
// If storage access itself fails, that error is wrapped as an Inner
// failure so callers see a uniform *ResilienceError[E] return type; this
// assumes E is (or wraps) a plain error, which holds for the common case of
// E = error.
func RateLimiterExecute[T any, E error](ctx context.Context, l *TokenBucketLimiter, key string, wrapStoreErr func(error) E, op func(context.Context) (T, *ResilienceError[E])) (T, *ResilienceError[E]) {
	var zero T

	decision, err := l.Acquire(ctx, key, 1)
	if err != nil {
		return zero, InnerErr[E](wrapStoreErr(err))
	}
	if !decision.Allowed {
		return zero, RateLimitedErr[E](decision.Wait)
	}

	return op(ctx)
}

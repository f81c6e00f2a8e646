package resilience

import "time"

// MaxBackoff caps every backoff computation, including after jitter. No
// strategy in this package returns a delay larger than this, regardless of
// attempt number or configured base.
const MaxBackoff = 24 * time.Hour

// Backoff computes a delay schedule as a function of attempt number.
// Attempt 0 is reserved to mean "no delay" and is never requested by the
// retry engine, which starts counting at attempt 1 for the first retry.
//
// Contract:
//   - Delay(0) == 0.
//   - Delay is monotonically non-decreasing in attempt.
//   - Delay never exceeds MaxBackoff.
type Backoff interface {
	Delay(attempt uint64) time.Duration
}

// constantBackoff returns the same delay for every attempt after the first.
type constantBackoff struct {
	delay time.Duration
	max   time.Duration // 0 means unset
}

// NewConstantBackoff returns a Backoff yielding d for every attempt >= 1.
func NewConstantBackoff(d time.Duration) Backoff {
	return &constantBackoff{delay: clampBackoff(d)}
}

func (b *constantBackoff) Delay(attempt uint64) time.Duration {
	if attempt == 0 {
		return 0
	}
	return applyCap(b.delay, b.max)
}

// WithMax returns a copy of this backoff capped at max. It rejects a
// non-positive max or a max smaller than the configured base delay.
func (b *constantBackoff) WithMax(max time.Duration) (Backoff, error) {
	if err := validateMax(max, b.delay); err != nil {
		return nil, err
	}
	return &constantBackoff{delay: b.delay, max: max}, nil
}

// linearBackoff grows delay linearly with attempt number: base * attempt.
type linearBackoff struct {
	base time.Duration
	max  time.Duration
}

// NewLinearBackoff returns a Backoff where Delay(n) = base * n.
func NewLinearBackoff(base time.Duration) Backoff {
	return &linearBackoff{base: clampBackoff(base)}
}

func (b *linearBackoff) Delay(attempt uint64) time.Duration {
	if attempt == 0 {
		return 0
	}
	n := attempt
	divisor := b.base
	if divisor <= 0 {
		divisor = 1
	}
	if n > uint64(MaxBackoff/divisor) {
		return applyCap(MaxBackoff, b.max)
	}
	d := b.base * time.Duration(n)
	return applyCap(clampBackoff(d), b.max)
}

// WithMax returns a copy of this backoff capped at max.
func (b *linearBackoff) WithMax(max time.Duration) (Backoff, error) {
	if err := validateMax(max, b.base); err != nil {
		return nil, err
	}
	return &linearBackoff{base: b.base, max: max}, nil
}

// exponentialBackoff doubles delay with each attempt: base * 2^(n-1).
type exponentialBackoff struct {
	base time.Duration
	max  time.Duration
}

// NewExponentialBackoff returns a Backoff where Delay(n) = base * 2^(n-1)
// for n >= 1, saturating on overflow.
func NewExponentialBackoff(base time.Duration) Backoff {
	return &exponentialBackoff{base: clampBackoff(base)}
}

func (b *exponentialBackoff) Delay(attempt uint64) time.Duration {
	if attempt == 0 {
		return 0
	}
	shift := attempt - 1
	if shift >= 63 {
		return applyCap(MaxBackoff, b.max)
	}
	factor := uint64(1) << shift
	baseNs := uint64(b.base)
	if baseNs != 0 && factor > uint64(MaxBackoff)/baseNs {
		return applyCap(MaxBackoff, b.max)
	}
	d := time.Duration(baseNs * factor)
	return applyCap(clampBackoff(d), b.max)
}

// WithMax returns a copy of this backoff capped at max.
func (b *exponentialBackoff) WithMax(max time.Duration) (Backoff, error) {
	if err := validateMax(max, b.base); err != nil {
		return nil, err
	}
	return &exponentialBackoff{base: b.base, max: max}, nil
}

func validateMax(max, base time.Duration) error {
	if max <= 0 {
		return ErrMaxMustBePositive
	}
	if max < base {
		return ErrMaxLessThanBase
	}
	return nil
}

func clampBackoff(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}

func applyCap(d, cap time.Duration) time.Duration {
	d = clampBackoff(d)
	if cap > 0 && d > cap {
		return cap
	}
	return d
}

package ebstack

import (
	"math"
	"math/rand/v2"
	"runtime"
	"time"
)

// Backoff is a randomized exponential wait.
// It is not safe for concurrent use; every operation keeps its own.
type Backoff struct {
	min, max time.Duration
	ceiling  time.Duration
	sleep    func(time.Duration)
}

// NewBackoff returns a Backoff waiting between lo and hi
func NewBackoff(lo, hi time.Duration) *Backoff {
	b := makeBackoff(lo, hi)
	return &b
}

func makeBackoff(lo, hi time.Duration) Backoff {
	return Backoff{min: lo, max: hi, ceiling: lo, sleep: time.Sleep}
}

// Wait sleeps a uniformly random duration in [min, ceiling] and doubles the ceiling up to max
func (b *Backoff) Wait() {
	d := b.min
	if span := b.ceiling - b.min; span == math.MaxInt64 {
		d += rand.N(span)
	} else if span > 0 {
		d += rand.N(span + 1)
	}
	if b.ceiling > b.max/2 {
		b.ceiling = b.max
	} else {
		b.ceiling = min(b.max, max(2*b.ceiling, time.Nanosecond))
	}

	if d <= 0 {
		runtime.Gosched()
		return
	}
	b.sleep(d)
}

// Reset restores the ceiling to min
func (b *Backoff) Reset() { b.ceiling = b.min }

// Ceiling returns the current upper bound of Wait
func (b *Backoff) Ceiling() time.Duration { return b.ceiling }

package ebstack

import (
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultExchangerWidth is the number of exchangers in the elimination array
	DefaultExchangerWidth = 8

	// DefaultEliminationWindow bounds a single elimination attempt
	DefaultEliminationWindow = 50 * time.Microsecond

	// DefaultMinBackoff and DefaultMaxBackoff bound the wait after a failed attempt
	DefaultMinBackoff = time.Microsecond
	DefaultMaxBackoff = time.Millisecond

	// DefaultCapacity is the default number of arena slots
	DefaultCapacity = 1 << 24
)

// Option represents the optional function.
type Option func(opts *Options)

// Options contains all options which will be applied when instantiating a Stack.
type Options struct {
	// ExchangerWidth is the fan-out of the elimination array.
	ExchangerWidth int

	// EliminationWindow is how long a contended Push or Pop waits for a partner
	// before falling back to the head CAS.
	EliminationWindow time.Duration

	// MinBackoff and MaxBackoff bound the randomized exponential wait between retries.
	MinBackoff, MaxBackoff time.Duration

	// Capacity is the maximum number of nodes alive at once.
	Capacity int

	// DisableElimination turns the stack into a plain CAS stack with backoff.
	DisableElimination bool

	// EnableStats turns on the counters reported by Stack.Stats.
	EnableStats bool
}

func loadOptions(options ...Option) (*Options, error) {
	opts := &Options{
		ExchangerWidth:    DefaultExchangerWidth,
		EliminationWindow: DefaultEliminationWindow,
		MinBackoff:        DefaultMinBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		Capacity:          DefaultCapacity,
	}
	for _, option := range options {
		option(opts)
	}
	return opts, opts.validate()
}

func (o *Options) validate() error {
	switch {
	case o.ExchangerWidth <= 0:
		return errors.Wrapf(ErrInvalidOption, "exchanger width %d", o.ExchangerWidth)
	case o.EliminationWindow <= 0:
		return errors.Wrapf(ErrInvalidOption, "elimination window %v", o.EliminationWindow)
	case o.MinBackoff < 0 || o.MaxBackoff < o.MinBackoff:
		return errors.Wrapf(ErrInvalidOption, "backoff bounds [%v, %v]", o.MinBackoff, o.MaxBackoff)
	case o.Capacity <= 0 || int64(o.Capacity) > MaxCapacity:
		return errors.Wrapf(ErrInvalidOption, "capacity %d", o.Capacity)
	}
	return nil
}

// WithOptions accepts the whole options config.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithExchangerWidth sets the number of exchangers used for elimination.
func WithExchangerWidth(width int) Option {
	return func(opts *Options) {
		opts.ExchangerWidth = width
	}
}

// WithEliminationWindow sets how long one elimination attempt may spin.
func WithEliminationWindow(window time.Duration) Option {
	return func(opts *Options) {
		opts.EliminationWindow = window
	}
}

// WithBackoff sets the bounds of the retry backoff.
func WithBackoff(lo, hi time.Duration) Option {
	return func(opts *Options) {
		opts.MinBackoff, opts.MaxBackoff = lo, hi
	}
}

// WithCapacity sets the maximum number of live nodes.
func WithCapacity(capacity int) Option {
	return func(opts *Options) {
		opts.Capacity = capacity
	}
}

// WithoutElimination disables the exchanger fallback.
func WithoutElimination() Option {
	return func(opts *Options) {
		opts.DisableElimination = true
	}
}

// WithStats enables operation counters.
func WithStats() Option {
	return func(opts *Options) {
		opts.EnableStats = true
	}
}

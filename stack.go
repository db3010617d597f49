package ebstack

import (
	"math/rand/v2"
	"sync/atomic"
	"time"
	"unsafe"
)

const cacheLinePadSize = 64

// Stack implements a lock-free elimination-backoff stack.
// Nodes come from a generation-stamped arena so the head CAS is immune to ABA,
// and contended operations try to cancel each other out through an
// EliminationArray before backing off and retrying the head.
type Stack[T any] struct {
	head atomic.Uint64
	_    [cacheLinePadSize - unsafe.Sizeof(atomic.Uint64{})]byte

	alloc *Allocator[T]
	elim  *EliminationArray
	opts  *Options
	stats *counters

	// test hooks: trace observes where each value entered or left the stack,
	// contend makes the next head CAS attempt count as failed when it returns true
	trace   func(ev event, v T)
	contend func() bool
}

type event uint8

const (
	headPush event = iota
	headPop
	eliminatedPush
	eliminatedPop
)

// New returns an empty stack configured by options
func New[T any](options ...Option) (*Stack[T], error) {
	opts, err := loadOptions(options...)
	if err != nil {
		return nil, err
	}
	s := &Stack[T]{
		alloc: NewAllocator[T](opts.Capacity),
		opts:  opts,
	}
	if !opts.DisableElimination {
		s.elim = NewEliminationArray(opts.ExchangerWidth)
	}
	if opts.EnableStats {
		s.stats = new(counters)
	}
	return s, nil
}

// Push pushes a value on top of the stack.
// The only error is a wrapped ErrArenaExhausted when no node can be allocated.
func (s *Stack[T]) Push(v T) error {
	ref, err := s.alloc.Allocate()
	if err != nil {
		return err
	}
	n := s.alloc.Node(ref)
	n.value = v

	var (
		bo    = makeBackoff(s.opts.MinBackoff, s.opts.MaxBackoff)
		start = s.startSlot()
	)
	for retries := 0; ; retries++ {
		top := s.head.Load()
		n.prev.Store(top)
		if !s.contended() && s.head.CompareAndSwap(top, uint64(ref)) {
			s.stats.push(retries, false)
			s.observe(headPush, v)
			return nil
		}
		s.stats.casFailure()
		// on success the popper owns ref
		if s.elim != nil && s.elim.DeliverAt(start+uint(retries), ref, s.deadline()) {
			s.stats.push(retries, true)
			s.observe(eliminatedPush, v)
			return nil
		}
		bo.Wait()
	}
}

// Pop pops the value on top of the stack.
// ok is false when the stack was observed empty, which is not an error.
func (s *Stack[T]) Pop() (v T, ok bool) {
	var (
		bo    = makeBackoff(s.opts.MinBackoff, s.opts.MaxBackoff)
		start = s.startSlot()
	)
	for retries := 0; ; retries++ {
		top := Ref(s.head.Load())
		if top.IsNil() {
			s.stats.emptyPop(retries)
			return v, false
		}
		// prev may be stale if top was recycled meanwhile, but then the stamp
		// in head differs from top and the CAS fails
		next := s.alloc.Node(top).prev.Load()
		if !s.contended() && s.head.CompareAndSwap(uint64(top), next) {
			v = s.release(top)
			s.stats.pop(retries)
			s.observe(headPop, v)
			return v, true
		}
		s.stats.casFailure()
		if s.elim != nil {
			if ref, matched := s.elim.ReceiveAt(start+uint(retries), s.deadline()); matched {
				v = s.release(ref)
				s.stats.pop(retries)
				s.observe(eliminatedPop, v)
				return v, true
			}
		}
		bo.Wait()
	}
}

// Empty reports whether the stack looked empty at the moment of the call.
// It is a hint only; a concurrent Push or Pop may change the answer immediately.
func (s *Stack[T]) Empty() bool {
	return Ref(s.head.Load()).IsNil()
}

// Stats returns a snapshot of the counters, all zero unless WithStats was given
func (s *Stack[T]) Stats() Stats {
	return s.stats.snapshot()
}

// release reads the value of an owned node and retires it
func (s *Stack[T]) release(ref Ref) T {
	v := s.alloc.Node(ref).value
	s.alloc.Deallocate(ref)
	return v
}

func (s *Stack[T]) startSlot() uint {
	if s.elim == nil {
		return 0
	}
	return rand.UintN(uint(s.elim.Width()))
}

func (s *Stack[T]) deadline() time.Time {
	return time.Now().Add(s.opts.EliminationWindow)
}

func (s *Stack[T]) contended() bool {
	return s.contend != nil && s.contend()
}

func (s *Stack[T]) observe(ev event, v T) {
	if s.trace != nil {
		s.trace(ev, v)
	}
}

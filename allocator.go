package ebstack

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	chunkShift = 10
	chunkSize  = 1 << chunkShift
	chunkMask  = chunkSize - 1

	// MaxCapacity is the largest number of slots an Allocator can address
	MaxCapacity = math.MaxUint32
)

// Node is a single slot of the arena
type Node[T any] struct {
	// stamped reference to the node below, read lock-free by concurrent pops
	prev atomic.Uint64
	// free list link, guarded by Allocator.mu
	nextFree Ref
	value    T
}

type chunk[T any] [chunkSize]Node[T]

// Allocator recycles Node storage through a locked free list.
// Slots live in fixed-size chunks and are never handed back to the Go heap,
// so a Ref can always be resolved even after its slot has been recycled.
// Every recycle advances the slot's stamp.
type Allocator[T any] struct {
	mu       sync.Mutex
	freeTop  Ref
	freeLen  int
	created  int
	live     int
	capacity int

	chunks []atomic.Pointer[chunk[T]]
}

// NewAllocator returns an allocator able to create up to capacity slots
func NewAllocator[T any](capacity int) *Allocator[T] {
	if capacity <= 0 || int64(capacity) > MaxCapacity {
		panic("ebstack: allocator capacity out of range")
	}
	return &Allocator[T]{
		capacity: capacity,
		chunks:   make([]atomic.Pointer[chunk[T]], (capacity+chunkSize-1)>>chunkShift),
	}
}

// Allocate hands out a recycled slot if one is free, otherwise a fresh slot with stamp 0.
// A chunk for fresh slots is zeroed outside the lock, so every critical section is O(1).
func (a *Allocator[T]) Allocate() (Ref, error) {
	var spare *chunk[T]
	a.mu.Lock()
	for {
		if r := a.freeTop; !r.IsNil() {
			n := a.Node(r)
			a.freeTop, n.nextFree = n.nextFree, nilRef
			a.freeLen--
			a.live++
			a.mu.Unlock()
			return r, nil
		}
		if a.created == a.capacity {
			a.mu.Unlock()
			return nilRef, errors.Wrapf(ErrArenaExhausted, "all %d slots in use", a.capacity)
		}
		c := &a.chunks[a.created>>chunkShift]
		if c.Load() != nil {
			break
		}
		if spare != nil {
			c.Store(spare)
			break
		}
		// state may change while unlocked, so everything is checked again
		a.mu.Unlock()
		spare = new(chunk[T])
		a.mu.Lock()
	}
	slot := a.created
	a.created++
	a.live++
	a.mu.Unlock()
	return MakeRef(uint32(slot+1), 0), nil
}

// Deallocate retires r to the free list, advancing its stamp exactly once.
// The caller must own r and must not use it afterwards.
func (a *Allocator[T]) Deallocate(r Ref) {
	var zero T
	n := a.Node(r)

	a.mu.Lock()
	n.value = zero
	n.nextFree = a.freeTop
	a.freeTop = r.IncStamp()
	a.freeLen++
	a.live--
	a.mu.Unlock()
}

// Node resolves r to its slot without locking; r must not be nil
func (a *Allocator[T]) Node(r Ref) *Node[T] {
	slot := int(r.Index()) - 1
	return &a.chunks[slot>>chunkShift].Load()[slot&chunkMask]
}

// Len returns the length of the free list
func (a *Allocator[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.freeLen
}

// Live returns the number of slots currently handed out
func (a *Allocator[T]) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Created returns the number of distinct slots created so far
func (a *Allocator[T]) Created() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created
}

// Cap returns the slot capacity
func (a *Allocator[T]) Cap() int { return a.capacity }

func (a *Allocator[T]) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("Allocator{live=%d, free=%d, created=%d, cap=%d}",
		a.live, a.freeLen, a.created, a.capacity)
}

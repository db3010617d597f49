package ebstack

import (
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"
)

// slot word of an Exchanger: zero is EMPTY, any non-nil Ref is a FULL offer
const slotEmpty uint64 = 0

// yield to the scheduler every spinsPerYield polls so the partner goroutine gets to run
const spinsPerYield = 64

// Exchanger is a single-slot rendezvous point for handing a Ref from a deliverer to a receiver
type Exchanger struct {
	slot atomic.Uint64
	_    [cacheLinePadSize - unsafe.Sizeof(atomic.Uint64{})]byte
}

// Receive polls until deadline for an offer and claims it.
// On success the caller owns the returned Ref.
func (e *Exchanger) Receive(deadline time.Time) (Ref, bool) {
	for spins := 0; time.Now().Before(deadline); spins++ {
		if w := e.slot.Load(); w != slotEmpty && e.slot.CompareAndSwap(w, slotEmpty) {
			return Ref(w), true
		}
		pause(spins)
	}
	return nilRef, false
}

// Deliver offers r until deadline and reports whether a receiver took it.
// If it returns false the caller still owns r. r must not be nil.
func (e *Exchanger) Deliver(r Ref, deadline time.Time) bool {
	offer := uint64(r)
	for spins := 0; time.Now().Before(deadline); spins++ {
		if e.slot.CompareAndSwap(slotEmpty, offer) {
			return e.await(offer, deadline)
		}
		pause(spins)
	}
	return false
}

// await waits for a resident offer to be claimed, withdrawing it at the deadline.
// Only a receiver can move the slot away from offer, and a claimed Ref is
// restamped before it can be offered again, so any other word means it was taken.
func (e *Exchanger) await(offer uint64, deadline time.Time) bool {
	for spins := 0; time.Now().Before(deadline); spins++ {
		if e.slot.Load() != offer {
			return true
		}
		pause(spins)
	}
	// a failed withdrawal means a receiver claimed it in the meantime
	return !e.slot.CompareAndSwap(offer, slotEmpty)
}

func pause(spins int) {
	if spins%spinsPerYield == spinsPerYield-1 {
		runtime.Gosched()
	}
}

// EliminationArray spreads concurrent rendezvous attempts over independent Exchangers
type EliminationArray struct {
	slots []Exchanger
}

// NewEliminationArray returns an array of width exchangers
func NewEliminationArray(width int) *EliminationArray {
	if width <= 0 {
		panic("ebstack: elimination array width must be positive")
	}
	return &EliminationArray{slots: make([]Exchanger, width)}
}

// Width returns the number of exchangers
func (a *EliminationArray) Width() int { return len(a.slots) }

// Receive waits on a randomly chosen exchanger
func (a *EliminationArray) Receive(deadline time.Time) (Ref, bool) {
	return a.ReceiveAt(rand.UintN(uint(len(a.slots))), deadline)
}

// ReceiveAt waits on exchanger idx modulo the width
func (a *EliminationArray) ReceiveAt(idx uint, deadline time.Time) (Ref, bool) {
	return a.slots[idx%uint(len(a.slots))].Receive(deadline)
}

// Deliver offers r on a randomly chosen exchanger
func (a *EliminationArray) Deliver(r Ref, deadline time.Time) bool {
	return a.DeliverAt(rand.UintN(uint(len(a.slots))), r, deadline)
}

// DeliverAt offers r on exchanger idx modulo the width
func (a *EliminationArray) DeliverAt(idx uint, r Ref, deadline time.Time) bool {
	return a.slots[idx%uint(len(a.slots))].Deliver(r, deadline)
}

package ebstack

import (
	"sync/atomic"
	"unsafe"
)

// Stats is a point-in-time copy of a Stack's counters
type Stats struct {
	Pushes       uint64 // successful pushes, eliminated ones included
	Pops         uint64 // pops that returned a value, eliminated ones included
	EmptyPops    uint64
	Eliminations uint64 // push/pop pairs matched through the exchanger
	CASFailures  uint64 // failed head CAS attempts
	MaxRetries   uint64 // most retries any single operation needed
}

// counters keeps each field on its own cache line; a nil *counters records nothing
type counters struct {
	pushes       paddedUint64
	pops         paddedUint64
	emptyPops    paddedUint64
	eliminations paddedUint64
	casFailures  paddedUint64
	maxRetries   paddedUint64
}

type paddedUint64 struct {
	atomic.Uint64
	_ [cacheLinePadSize - unsafe.Sizeof(atomic.Uint64{})]byte
}

func (c *counters) push(retries int, eliminated bool) {
	if c == nil {
		return
	}
	c.pushes.Add(1)
	if eliminated {
		c.eliminations.Add(1)
	}
	c.observe(retries)
}

func (c *counters) pop(retries int) {
	if c == nil {
		return
	}
	c.pops.Add(1)
	c.observe(retries)
}

func (c *counters) emptyPop(retries int) {
	if c == nil {
		return
	}
	c.emptyPops.Add(1)
	c.observe(retries)
}

func (c *counters) casFailure() {
	if c == nil {
		return
	}
	c.casFailures.Add(1)
}

func (c *counters) observe(retries int) {
	n := uint64(retries)
	for {
		cur := c.maxRetries.Load()
		if n <= cur || c.maxRetries.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (c *counters) snapshot() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Pushes:       c.pushes.Load(),
		Pops:         c.pops.Load(),
		EmptyPops:    c.emptyPops.Load(),
		Eliminations: c.eliminations.Load(),
		CASFailures:  c.casFailures.Load(),
		MaxRetries:   c.maxRetries.Load(),
	}
}

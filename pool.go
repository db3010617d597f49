package ebstack

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Pool represents a goroutine pool for running tasks ( type -> func() {} ).
// Idle workers park on a Stack, so the most recently used worker is woken
// first and its caches stay warm.
type Pool struct {
	running atomic.Int64
	_       [cacheLinePadSize - unsafe.Sizeof(atomic.Int64{})]byte

	maxSize int64
	idle    *Stack[*worker]
	done    chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
}

type worker struct {
	// holds at most one task, sent by whoever popped the worker off the idle stack
	tasks chan func()
}

// NewPool returns a pool running at most size goroutines
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidOption, "pool size %d", size)
	}
	idle, err := New[*worker](WithCapacity(size))
	if err != nil {
		return nil, err
	}
	return &Pool{maxSize: int64(size), idle: idle, done: make(chan struct{})}, nil
}

// Submit submits a new task to the pool.
// It reuses an idle worker if available, else it spawns a new one while below
// the size limit, else it yields until a worker frees up.
func (p *Pool) Submit(task func()) error {
	for {
		if p.closed.Load() {
			return ErrPoolClosed
		}
		if w, ok := p.idle.Pop(); ok {
			w.tasks <- task
			return nil
		}
		if n := p.running.Load(); n < p.maxSize {
			if p.running.CompareAndSwap(n, n+1) {
				p.wg.Add(1)
				go p.loop(&worker{tasks: make(chan func(), 1)}, task)
				return nil
			}
			continue
		}
		runtime.Gosched()
	}
}

// Running returns the number of live worker goroutines
func (p *Pool) Running() int { return int(p.running.Load()) }

// Release stops idle workers and waits for busy ones to finish.
// Submit must not be called concurrently with Release.
func (p *Pool) Release() {
	if p.closed.Swap(true) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// loop is the looping function for every worker goroutine
func (p *Pool) loop(w *worker, task func()) {
	defer func() {
		p.running.Add(-1)
		p.wg.Done()
	}()
	for {
		task()
		if p.idle.Push(w) != nil {
			return
		}
		select {
		case task = <-w.tasks:
		case <-p.done:
			// a Submit may have popped this worker just before Release
			select {
			case task = <-w.tasks:
			default:
				return
			}
		}
	}
}

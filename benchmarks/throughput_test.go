package test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
)

// producerConsumer moves RunTimes values through s, submitting each
// producer and consumer to submit
func producerConsumer(s stack, submit func(func())) {
	var (
		wg     sync.WaitGroup
		popped atomic.Int64
	)
	wg.Add(Producers + Consumers)
	for p := 0; p < Producers; p++ {
		submit(func() {
			defer wg.Done()
			for i := 0; i < RunTimes/Producers; i++ {
				_ = s.Push(i + 1)
			}
		})
	}
	for c := 0; c < Consumers; c++ {
		submit(func() {
			defer wg.Done()
			for popped.Load() < RunTimes {
				if _, ok := s.Pop(); ok {
					popped.Add(1)
				}
			}
		})
	}
	wg.Wait()
}

func benchGoroutines(b *testing.B, newStack func(*testing.B) stack) {
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		producerConsumer(newStack(b), func(task func()) { go task() })
	}
	b.StopTimer()
}

func benchAnts(b *testing.B, newStack func(*testing.B) stack) {
	p, _ := ants.NewPool(PoolSize, ants.WithExpiryDuration(DefaultExpiry))
	defer p.Release()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		producerConsumer(newStack(b), func(task func()) { _ = p.Submit(task) })
	}
	b.StopTimer()
}

func benchWorkerpool(b *testing.B, newStack func(*testing.B) stack) {
	p := workerpool.New(PoolSize)
	defer p.StopWait()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		producerConsumer(newStack(b), p.Submit)
	}
	b.StopTimer()
}

func BenchmarkEliminationGoroutines(b *testing.B) { benchGoroutines(b, newElimination) }

func BenchmarkTreiberGoroutines(b *testing.B) { benchGoroutines(b, newTreiber) }

func BenchmarkMutexGoroutines(b *testing.B) { benchGoroutines(b, newMutex) }

func BenchmarkEliminationAnts(b *testing.B) { benchAnts(b, newElimination) }

func BenchmarkTreiberAnts(b *testing.B) { benchAnts(b, newTreiber) }

func BenchmarkMutexAnts(b *testing.B) { benchAnts(b, newMutex) }

func BenchmarkEliminationWorkerpool(b *testing.B) { benchWorkerpool(b, newElimination) }

func BenchmarkTreiberWorkerpool(b *testing.B) { benchWorkerpool(b, newTreiber) }

func BenchmarkMutexWorkerpool(b *testing.B) { benchWorkerpool(b, newMutex) }

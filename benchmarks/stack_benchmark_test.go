package test

import (
	"testing"

	"github.com/alphadose/ebstack"
)

func newElimination(b *testing.B) stack {
	s, err := ebstack.New[int](ebstack.WithEliminationWindow(ElimWindow))
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func newTreiber(b *testing.B) stack {
	s, err := ebstack.New[int](ebstack.WithoutElimination())
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func newMutex(*testing.B) stack { return &mutexStack{} }

func benchSingle(b *testing.B, s stack) {
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Push(i)
		s.Pop()
	}
}

func benchParallel(b *testing.B, s stack) {
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i&1 == 0 {
				_ = s.Push(i)
			} else {
				s.Pop()
			}
			i++
		}
	})
}

func BenchmarkEliminationStack_Single(b *testing.B) { benchSingle(b, newElimination(b)) }

func BenchmarkTreiberStack_Single(b *testing.B) { benchSingle(b, newTreiber(b)) }

func BenchmarkMutexStack_Single(b *testing.B) { benchSingle(b, newMutex(b)) }

func BenchmarkEliminationStack_Parallel(b *testing.B) { benchParallel(b, newElimination(b)) }

func BenchmarkTreiberStack_Parallel(b *testing.B) { benchParallel(b, newTreiber(b)) }

func BenchmarkMutexStack_Parallel(b *testing.B) { benchParallel(b, newMutex(b)) }

package ebstack

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
)

func TestAllocatorFreshSlots(t *testing.T) {
	a := NewAllocator[int](4)
	for i := uint32(1); i <= 4; i++ {
		r, err := a.Allocate()
		if err != nil {
			t.Fatal(err)
		}
		if r.Index() != i || r.Stamp() != 0 {
			t.Fatalf("fresh slot %d: got %v", i, r)
		}
	}
	if a.Live() != 4 || a.Len() != 0 || a.Created() != 4 {
		t.Errorf("unexpected state %v", a)
	}
}

func TestAllocatorRecycleAdvancesStamp(t *testing.T) {
	a := NewAllocator[int](1)
	r, _ := a.Allocate()
	for gen := uint32(1); gen <= 3; gen++ {
		a.Deallocate(r)
		if a.Len() != 1 || a.Live() != 0 {
			t.Fatalf("after deallocate: %v", a)
		}
		next, err := a.Allocate()
		if err != nil {
			t.Fatal(err)
		}
		if next.Index() != r.Index() || next.Stamp() != gen {
			t.Fatalf("generation %d: got %v", gen, next)
		}
		r = next
	}
	if a.Created() != 1 {
		t.Errorf("recycling created new slots: %v", a)
	}
}

func TestAllocatorFreeListIsLIFO(t *testing.T) {
	a := NewAllocator[int](3)
	r1, _ := a.Allocate()
	r2, _ := a.Allocate()
	a.Deallocate(r1)
	a.Deallocate(r2)
	if got, _ := a.Allocate(); got.Index() != r2.Index() {
		t.Errorf("expected slot %d first, got %v", r2.Index(), got)
	}
	if got, _ := a.Allocate(); got.Index() != r1.Index() {
		t.Errorf("expected slot %d second, got %v", r1.Index(), got)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	a := NewAllocator[int](2)
	r, _ := a.Allocate()
	_, _ = a.Allocate()
	if _, err := a.Allocate(); !errors.Is(err, ErrArenaExhausted) {
		t.Fatalf("expected ErrArenaExhausted, got %v", err)
	}
	a.Deallocate(r)
	if _, err := a.Allocate(); err != nil {
		t.Fatalf("a freed slot must be reusable: %v", err)
	}
}

func TestAllocatorDeallocateClearsValue(t *testing.T) {
	a := NewAllocator[*int](1)
	r, _ := a.Allocate()
	v := 9
	a.Node(r).value = &v
	a.Deallocate(r)
	r, _ = a.Allocate()
	if a.Node(r).value != nil {
		t.Error("recycled slot kept the old value")
	}
}

func TestAllocatorSpansChunks(t *testing.T) {
	const n = chunkSize + 5
	a := NewAllocator[int](n)
	seen := make(map[*Node[int]]bool, n)
	for i := 0; i < n; i++ {
		r, err := a.Allocate()
		if err != nil {
			t.Fatal(err)
		}
		node := a.Node(r)
		if seen[node] {
			t.Fatalf("slot %v resolved to a node already handed out", r)
		}
		seen[node] = true
		node.value = i
	}
	if got := a.Node(MakeRef(chunkSize+1, 0)).value; got != chunkSize {
		t.Errorf("first slot of second chunk holds %d", got)
	}
}

func TestAllocatorConcurrentChunkGrowth(t *testing.T) {
	const (
		goroutines = 8
		per        = chunkSize / 2
	)
	a := NewAllocator[int](goroutines * per)
	refs := make([][]Ref, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				r, err := a.Allocate()
				if err != nil {
					t.Error(err)
					return
				}
				a.Node(r).value = g*per + i
				refs[g] = append(refs[g], r)
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[uint32]bool, goroutines*per)
	for g, rs := range refs {
		for i, r := range rs {
			if seen[r.Index()] {
				t.Fatalf("slot %d handed out twice", r.Index())
			}
			seen[r.Index()] = true
			if got := a.Node(r).value; got != g*per+i {
				t.Fatalf("slot %d holds %d, want %d", r.Index(), got, g*per+i)
			}
		}
	}
	if a.Created() != goroutines*per || a.Live() != goroutines*per {
		t.Errorf("unexpected state %v", a)
	}
	if _, err := a.Allocate(); !errors.Is(err, ErrArenaExhausted) {
		t.Errorf("expected ErrArenaExhausted, got %v", err)
	}
}

func TestNewAllocatorRejectsBadCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	NewAllocator[int](0)
}

package test

import "sync"

// mutexStack is the lock based baseline
type mutexStack struct {
	mu    sync.Mutex
	items []int
}

func (s *mutexStack) Push(v int) error {
	s.mu.Lock()
	s.items = append(s.items, v)
	s.mu.Unlock()
	return nil
}

func (s *mutexStack) Pop() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return 0, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

func (s *mutexStack) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

type stack interface {
	Push(v int) error
	Pop() (int, bool)
	Empty() bool
}

package observability

import (
	"sync"
	"time"
)

type startTimes struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newStartTimes() *startTimes {
	return &startTimes{m: make(map[string]time.Time)}
}

func (s *startTimes) put(id string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = t
}

func (s *startTimes) take(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[id]
	delete(s.m, id)
	return t, ok
}

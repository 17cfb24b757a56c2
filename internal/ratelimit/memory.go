package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowCount struct {
	window int64
	count  int
}

// MemoryStore is a single-process fixed-window limiter.
type MemoryStore struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	now        func() time.Time
	counts     map[string]*windowCount
	prunedUpTo int64
}

func NewMemoryStore(limit int, window time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		limit:  limit,
		window: window,
		now:    now,
		counts: make(map[string]*windowCount),
	}
}

func (s *MemoryStore) Allow(_ context.Context, identity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := windowIndex(s.now(), s.window)
	if idx != s.prunedUpTo {
		for k, c := range s.counts {
			if c.window < idx {
				delete(s.counts, k)
			}
		}
		s.prunedUpTo = idx
	}

	c, ok := s.counts[identity]
	if !ok || c.window != idx {
		c = &windowCount{window: idx}
		s.counts[identity] = c
	}
	c.count++
	return c.count <= s.limit, nil
}

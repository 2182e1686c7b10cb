package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is the state of one key's current fixed window after a hit.
type Window struct {
	Count   int
	ResetAt time.Time
}

// Store counts hits per key. Hit starts a new window of the given length when the key has
// none or its window has ended (now >= ResetAt); otherwise it increments the count.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Window, error)
}

// MemoryStore is a process-local Store. State is lost on restart and not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Window
	now     func() time.Time
}

// NewMemoryStore returns an empty store. now may be nil to use the wall clock.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]Window), now: now}
}

// Hit records one request for key.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	w, ok := s.entries[key]
	if !ok || !now.Before(w.ResetAt) {
		w = Window{Count: 1, ResetAt: now.Add(window)}
	} else {
		w.Count++
	}
	s.entries[key] = w
	return w, nil
}

// Sweep drops windows that have ended and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, w := range s.entries {
		if !now.Before(w.ResetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

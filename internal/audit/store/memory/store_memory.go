package memory

import (
	"context"
	"sync"

	"clubroster/internal/audit"
)

// Store keeps admin-log entries in memory. Append-only: nothing in the API
// mutates or removes an entry once written.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *Store) ListByTarget(_ context.Context, targetCallSign string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TargetCallSign == targetCallSign {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// Len reports the number of entries; used by tests asserting exactly-once
// logging.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/schedule"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
)

// VerdictStore is an in-memory VerdictStore for tests and dev runs.
// Not durable — a real door uses the sqlite store.
type VerdictStore struct {
	mu   sync.RWMutex
	data map[string]store.Verdict
}

func NewVerdictStore() *VerdictStore {
	return &VerdictStore{data: make(map[string]store.Verdict)}
}

func (s *VerdictStore) Get(_ context.Context, cardID string) (*store.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[cardID]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate the stored windows slice.
	out := v
	out.Windows = append([]schedule.Window(nil), v.Windows...)
	return &out, nil
}

func (s *VerdictStore) Put(_ context.Context, v store.Verdict) error {
	if v.ObservedAt.IsZero() {
		v.ObservedAt = time.Now().UTC()
	}
	v.Windows = append([]schedule.Window(nil), v.Windows...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[v.CardID] = v
	return nil
}

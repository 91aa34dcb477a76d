package memory

import (
	"context"
	"sync"
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
)

// DecisionStore is an in-memory append-only decision log for tests and
// dev runs.
type DecisionStore struct {
	mu      sync.Mutex
	records []store.DecisionRecord
}

func NewDecisionStore() *DecisionStore {
	return &DecisionStore{}
}

func (s *DecisionStore) Append(_ context.Context, rec store.DecisionRecord) error {
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *DecisionStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if rec.DecidedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// Records returns a copy of everything appended so far.  Test-only helper.
func (s *DecisionStore) Records() []store.DecisionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.DecisionRecord, len(s.records))
	copy(out, s.records)
	return out
}

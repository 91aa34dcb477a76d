package store

import (
	"context"
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/schedule"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

// Verdict is the most recent authorization answer remembered for one
// credential.  A new verdict replaces the old one wholesale; there is no
// history.  Windows is the weekly schedule snapshotted from the answer,
// empty when the authority supplied none.
type Verdict struct {
	CardID     string
	Allowed    bool
	ObservedAt time.Time
	Windows    []schedule.Window
}

// Fresh reports whether the verdict is recent enough to trust when the
// authority cannot be reached.  Staleness is judged here, at read time;
// nothing ever evicts entries in the background.
func (v Verdict) Fresh(now time.Time, maxAge time.Duration) bool {
	return now.Sub(v.ObservedAt) <= maxAge
}

// VerdictStore is the durable per-credential cache.  Get returns nil
// (not an error) for credentials never seen.  Put overwrites
// unconditionally: last write wins, single entry per credential.
// Implementations must keep reads and writes of the same credential
// atomic with respect to each other.
type VerdictStore interface {
	Get(ctx context.Context, cardID string) (*Verdict, error)
	Put(ctx context.Context, v Verdict) error
}

// DecisionRecord is one entry in the local audit log.
type DecisionRecord struct {
	DecisionID string
	ModuleID   string
	CardID     string
	Granted    bool
	Reason     string
	Source     types.Source
	DecidedAt  time.Time
}

// DecisionStore is the append-only log of decisions made at this door.
type DecisionStore interface {
	Append(ctx context.Context, rec DecisionRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

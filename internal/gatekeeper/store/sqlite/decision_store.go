package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/doorward/gatekeeper/internal/db"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
)

// DecisionStore is the append-only audit log of decisions made at this
// door, pruned periodically by retention.
type DecisionStore struct {
	conn   *sql.DB
	writer *dbpkg.Writer
}

func NewDecisionStore(conn *sql.DB, writer *dbpkg.Writer) *DecisionStore {
	return &DecisionStore{conn: conn, writer: writer}
}

func (s *DecisionStore) Append(ctx context.Context, rec store.DecisionRecord) error {
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now().UTC()
	}

	var granted int
	if rec.Granted {
		granted = 1
	}
	decidedMs := rec.DecidedAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO decisions(
  decision_id, module_id, card_id, granted, reason, source, decided_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			rec.DecisionID, rec.ModuleID, rec.CardID, granted,
			rec.Reason, string(rec.Source), decidedMs,
		); err != nil {
			return fmt.Errorf("decision append: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes decisions decided before cutoff and returns the
// number of rows removed.  Range-scans idx_decisions_time.
func (s *DecisionStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM decisions
WHERE decided_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("decision prune: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

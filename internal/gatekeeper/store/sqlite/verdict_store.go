package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	dbpkg "github.com/doorward/gatekeeper/internal/db"
	"github.com/doorward/gatekeeper/internal/gatekeeper/schedule"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
)

// VerdictStore keeps the single most recent verdict per credential in
// the local database.  Reads go straight to the connection; writes go
// through the serialized writer so an overlapping read observes either
// the old row or the new one, never a mix.
type VerdictStore struct {
	conn   *sql.DB
	writer *dbpkg.Writer
}

func NewVerdictStore(conn *sql.DB, writer *dbpkg.Writer) *VerdictStore {
	return &VerdictStore{conn: conn, writer: writer}
}

// windowRow is the stored form of one schedule window.
type windowRow struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *VerdictStore) Get(ctx context.Context, cardID string) (*store.Verdict, error) {
	var (
		allowed     int
		observedMs  int64
		windowsJSON sql.NullString
	)
	err := s.conn.QueryRowContext(ctx, `
SELECT allowed, observed_at_ms, windows_json
FROM verdicts
WHERE card_id = ?;
`, cardID).Scan(&allowed, &observedMs, &windowsJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verdict get: %w", err)
	}

	v := &store.Verdict{
		CardID:     cardID,
		Allowed:    allowed == 1,
		ObservedAt: time.UnixMilli(observedMs).UTC(),
	}

	if windowsJSON.Valid && windowsJSON.String != "" {
		var rows []windowRow
		if err := json.Unmarshal([]byte(windowsJSON.String), &rows); err != nil {
			return nil, fmt.Errorf("verdict get: decode windows: %w", err)
		}
		for _, r := range rows {
			w, err := schedule.ParseWindow(r.Day, r.Start, r.End)
			if err != nil {
				return nil, fmt.Errorf("verdict get: stored window: %w", err)
			}
			v.Windows = append(v.Windows, w)
		}
	}

	return v, nil
}

func (s *VerdictStore) Put(ctx context.Context, v store.Verdict) error {
	if v.ObservedAt.IsZero() {
		v.ObservedAt = time.Now().UTC()
	}

	var allowed int
	if v.Allowed {
		allowed = 1
	}

	var windowsJSON any
	if len(v.Windows) > 0 {
		rows := make([]windowRow, 0, len(v.Windows))
		for _, w := range v.Windows {
			rows = append(rows, windowRow{
				Day:   schedule.FormatDay(w.Day),
				Start: w.Start.String(),
				End:   w.End.String(),
			})
		}
		b, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("verdict put: encode windows: %w", err)
		}
		windowsJSON = string(b)
	}

	observedMs := v.ObservedAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO verdicts(card_id, allowed, observed_at_ms, windows_json)
VALUES (?, ?, ?, ?)
ON CONFLICT(card_id) DO UPDATE SET
  allowed        = excluded.allowed,
  observed_at_ms = excluded.observed_at_ms,
  windows_json   = excluded.windows_json;
`, v.CardID, allowed, observedMs, windowsJSON); err != nil {
			return fmt.Errorf("verdict put: %w", err)
		}
		return nil
	})
}

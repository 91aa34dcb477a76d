package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/doorward/gatekeeper/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the production
// PRAGMAs and schema.  Closed automatically when the test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Unique per test; shared-cache keeps the in-memory database alive
	// even if sql.DB recycles the underlying connection.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Writer backed by conn, closed when the test
// finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Writer {
	t.Helper()

	w := db.NewWriter(conn)
	t.Cleanup(w.Close)
	return w
}

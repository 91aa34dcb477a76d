package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path string // e.g. "./data/gatekeeper.db"
}

// Open opens (creating if necessary) the gatekeeper's local SQLite
// database and applies migrations.  The cache lives on the reader's own
// disk on purpose: it has to keep working through the same outage that
// took the authority away.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/gatekeeper.db"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	// Per-connection PRAGMAs via the modernc.org/sqlite DSN.  WAL plus
	// synchronous NORMAL is durable enough for a cache whose worst-case
	// loss is one recent verdict, and busy_timeout absorbs contention
	// between the reader loop and the pruner.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		cfg.Path,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// One connection only.  SQLite in a single process behaves best this
	// way, and it makes the per-credential atomicity the cache promises
	// trivial.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

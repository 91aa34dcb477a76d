package db

import (
	"context"
	"database/sql"
)

// TxFn runs inside a transaction owned by the Writer.
type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx    context.Context
	fn     TxFn
	result chan error
}

// Writer serializes all mutations onto a single goroutine, one
// transaction at a time.  With SQLite on one connection this is the
// cheapest way to get the "a read sees the old row or the new row,
// never a torn one" guarantee the verdict cache promises.
type Writer struct {
	conn *sql.DB
	jobs chan job
	done chan struct{}
}

// NewWriter starts the write loop.  The queue is small: the only
// producers are the reader loop (one decision in flight at a time) and
// the pruner.
func NewWriter(conn *sql.DB) *Writer {
	w := &Writer{
		conn: conn,
		jobs: make(chan job, 64),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close drains outstanding jobs and stops the loop.
func (w *Writer) Close() {
	close(w.jobs)
	<-w.done
}

// Do runs fn in a transaction on the write goroutine and returns its
// result.  If the caller's context expires first, Do returns early; the
// transaction still completes and its result is discarded.
func (w *Writer) Do(ctx context.Context, fn TxFn) error {
	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case w.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer close(w.done)

	for j := range w.jobs {
		tx, err := w.conn.BeginTx(j.ctx, nil)
		if err != nil {
			j.result <- err
			continue
		}
		if err := j.fn(j.ctx, tx); err != nil {
			_ = tx.Rollback()
			j.result <- err
			continue
		}
		j.result <- tx.Commit()
	}
}

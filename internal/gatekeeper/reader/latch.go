package reader

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// LatchFunc adapts a plain function to the Latch interface.
type LatchFunc func(ctx context.Context, open bool) error

func (f LatchFunc) Set(ctx context.Context, open bool) error { return f(ctx, open) }

// WriterLatch drives an external relay controller that reads "1"/"0"
// lines, one per decision, from a pipe or device file.
type WriterLatch struct {
	w io.Writer
}

func NewWriterLatch(w io.Writer) *WriterLatch {
	return &WriterLatch{w: w}
}

func (l *WriterLatch) Set(_ context.Context, open bool) error {
	v := "0"
	if open {
		v = "1"
	}
	if _, err := fmt.Fprintln(l.w, v); err != nil {
		return fmt.Errorf("write latch command: %w", err)
	}
	return nil
}

// LogLatch only logs.  Stand-in for dev runs without relay hardware.
type LogLatch struct {
	Logger *log.Logger
}

func (l *LogLatch) Set(_ context.Context, open bool) error {
	l.Logger.WithField("open", open).Info("latch")
	return nil
}

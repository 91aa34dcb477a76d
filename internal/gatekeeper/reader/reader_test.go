package reader_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/gatekeeper/reader"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

func silentLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// queueReader hands out the queued scans one per poll, then nothing.
type queueReader struct {
	mu    sync.Mutex
	scans []scanResult
}

type scanResult struct {
	raw []byte
	err error
}

func (r *queueReader) Poll(context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scans) == 0 {
		return nil, nil
	}
	s := r.scans[0]
	r.scans = r.scans[1:]
	return s.raw, s.err
}

type recordingLatch struct {
	mu    sync.Mutex
	calls []bool
}

func (l *recordingLatch) Set(_ context.Context, open bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, open)
	return nil
}

func (l *recordingLatch) snapshot() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.calls...)
}

// allowList authorizes exactly the ids it knows.
type allowList struct {
	mu    sync.Mutex
	allow map[string]bool
	seen  []string
}

func (a *allowList) Authorize(_ context.Context, cardID string) (types.Decision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = append(a.seen, cardID)
	return types.Decision{
		CardID:  cardID,
		Granted: a.allow[cardID],
		Source:  types.SourceLive,
	}, nil
}

func runLoop(t *testing.T, r reader.CardReader, l reader.Latch, a reader.Authorizer, settle func() bool) {
	t.Helper()

	loop := reader.NewLoop(r, l, a, reader.LoopConfig{PollInterval: time.Millisecond}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Run: %v", err)
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !settle() {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestLoop_ScanDecideActuate(t *testing.T) {
	cards := &queueReader{scans: []scanResult{
		{raw: []byte{0x04, 0xa3, 0xb2, 0xc1}}, // allowed
		{raw: []byte{0xde, 0xad}},             // denied
	}}
	latch := &recordingLatch{}
	auth := &allowList{allow: map[string]bool{"04a3b2c1": true}}

	runLoop(t, cards, latch, auth, func() bool { return len(latch.snapshot()) >= 2 })

	calls := latch.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 latch actuations, got %d", len(calls))
	}
	if !calls[0] || calls[1] {
		t.Errorf("expected [open, closed], got %v", calls)
	}
	if auth.seen[0] != "04a3b2c1" || auth.seen[1] != "dead" {
		t.Errorf("unexpected canonical ids %v", auth.seen)
	}
}

func TestLoop_ReadErrorSkipsCycle(t *testing.T) {
	cards := &queueReader{scans: []scanResult{
		{err: errors.New("rf noise")},
		{raw: []byte{0xca, 0xfe}},
	}}
	latch := &recordingLatch{}
	auth := &allowList{allow: map[string]bool{"cafe": true}}

	runLoop(t, cards, latch, auth, func() bool { return len(latch.snapshot()) >= 1 })

	// The bad read must not produce a decision or touch the latch.
	if got := len(auth.seen); got != 1 {
		t.Fatalf("expected 1 decision, got %d", got)
	}
	if calls := latch.snapshot(); len(calls) != 1 || !calls[0] {
		t.Errorf("expected single open actuation, got %v", calls)
	}
}

func TestLoop_NoCardNoDecision(t *testing.T) {
	cards := &queueReader{} // never presents a card
	latch := &recordingLatch{}
	auth := &allowList{}

	loop := reader.NewLoop(cards, latch, auth, reader.LoopConfig{PollInterval: time.Millisecond}, silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	if len(auth.seen) != 0 {
		t.Errorf("expected no decisions, got %v", auth.seen)
	}
	if len(latch.snapshot()) != 0 {
		t.Errorf("expected no actuations")
	}
}

func TestLineReader_DecodesDriverFormats(t *testing.T) {
	feed := strings.NewReader("04:A3:B2:C1\n4a3b2c1\n\ncafe\n")
	lr := reader.NewLineReader(feed)
	ctx := context.Background()

	want := [][]byte{
		{0x04, 0xa3, 0xb2, 0xc1},
		{0x04, 0xa3, 0xb2, 0xc1}, // dropped leading zero restored
		{0xca, 0xfe},
	}

	for i, exp := range want {
		raw := pollUntil(t, lr, ctx)
		if string(raw) != string(exp) {
			t.Errorf("scan %d: got %x, want %x", i, raw, exp)
		}
	}
}

func TestLineReader_ClosedFeedReportsEOFOnce(t *testing.T) {
	lr := reader.NewLineReader(strings.NewReader("cafe\n"))
	ctx := context.Background()

	if raw := pollUntil(t, lr, ctx); string(raw) != string([]byte{0xca, 0xfe}) {
		t.Fatalf("unexpected scan %x", raw)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("never saw EOF after the feed closed")
		}
		raw, err := lr.Poll(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if raw != nil {
			t.Fatalf("unexpected scan %x", raw)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// One EOF only; afterwards the dead feed reads as idle so the loop
	// does not log an error every poll interval.
	for i := 0; i < 5; i++ {
		raw, err := lr.Poll(ctx)
		if raw != nil || err != nil {
			t.Fatalf("poll %d after EOF: got (%x, %v), want (nil, nil)", i, raw, err)
		}
	}
}

func TestLineReader_BadLineSurfacesAsReadError(t *testing.T) {
	lr := reader.NewLineReader(strings.NewReader("not-hex-at-all\n"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		raw, err := lr.Poll(context.Background())
		if err != nil {
			return // what we wanted
		}
		if raw != nil {
			t.Fatalf("expected error, got scan %x", raw)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("never saw a read error")
}

func pollUntil(t *testing.T, lr *reader.LineReader, ctx context.Context) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		raw, err := lr.Poll(ctx)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if raw != nil {
			return raw
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no scan arrived")
	return nil
}

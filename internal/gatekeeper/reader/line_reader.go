package reader

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// LineReader adapts a line-oriented feed of hex-encoded UIDs — the
// usual bridge from an external RFID driver process, e.g. a FIFO it
// writes one line per scan into — to the CardReader interface.  A
// background goroutine scans lines into a small buffer so Poll never
// blocks on the hardware.
type LineReader struct {
	scans chan scan
	// eofSeen is touched only by Poll's caller, the single loop
	// goroutine.
	eofSeen bool
}

type scan struct {
	raw []byte
	err error
}

func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{scans: make(chan scan, 8)}
	go lr.scanLines(r)
	return lr
}

func (lr *LineReader) scanLines(r io.Reader) {
	defer close(lr.scans)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		raw, err := decodeUID(line)
		if err != nil {
			lr.scans <- scan{err: err}
			continue
		}
		lr.scans <- scan{raw: raw}
	}
	if err := sc.Err(); err != nil {
		lr.scans <- scan{err: fmt.Errorf("read scan feed: %w", err)}
	}
}

// Poll returns the oldest buffered scan, or (nil, nil) when no card has
// been presented since the last poll.  A drained, closed feed reports
// io.EOF exactly once; after that the reader looks idle rather than
// erroring on every poll.
func (lr *LineReader) Poll(ctx context.Context) ([]byte, error) {
	select {
	case s, ok := <-lr.scans:
		if !ok {
			if lr.eofSeen {
				return nil, nil
			}
			lr.eofSeen = true
			return nil, io.EOF
		}
		return s.raw, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, nil
	}
}

// decodeUID parses one feed line into UID bytes.  Drivers format UIDs
// inconsistently (separators, dropped leading zeros), so be liberal.
func decodeUID(line string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '-':
			return -1
		}
		return r
	}, line)
	if len(cleaned)%2 != 0 {
		cleaned = "0" + cleaned
	}
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("bad scan line %q: %w", line, err)
	}
	return raw, nil
}

package credential

import (
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrEmptyScan = errors.New("empty credential scan")
	ErrNotHex    = errors.New("credential is not valid hex")
)

// Canonicalize converts the raw UID bytes from a card read into the
// canonical credential id: lowercase hex, two digits per byte, no
// separators.  Byte values below 0x10 keep their leading zero, so the
// same physical card always produces the same string.
func Canonicalize(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmptyScan
	}
	return hex.EncodeToString(raw), nil
}

// Normalize brings an externally supplied credential string (allowlists,
// config, test fixtures) into canonical form.  Accepts separators commonly
// seen in card-id dumps: spaces, colons and dashes.
func Normalize(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '-':
			return -1
		}
		return r
	}, s)

	if s == "" {
		return "", ErrEmptyScan
	}
	if len(s)%2 != 0 {
		// Odd length means a leading zero was dropped somewhere upstream.
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", ErrNotHex
	}
	return hex.EncodeToString(raw), nil
}

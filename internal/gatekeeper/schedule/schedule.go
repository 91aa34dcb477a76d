package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day expressed as seconds since midnight.
// Second resolution matters: a window ending at 17:00 must not match
// 17:00:01.
type ClockTime int

const (
	// EndOfDay is the last representable instant, 23:59:59.
	EndOfDay ClockTime = 24*3600 - 1
)

func NewClockTime(hour, min, sec int) ClockTime {
	return ClockTime(hour*3600 + min*60 + sec)
}

// ParseClockTime parses "HH:MM" or "HH:MM:SS".  Every field must be a
// bare integer; trailing garbage ("09:00pm") is rejected.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse clock time %q: want HH:MM or HH:MM:SS", s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("parse clock time %q: %w", s, err)
		}
		vals[i] = n
	}
	h, m, sec := vals[0], vals[1], vals[2]
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("parse clock time %q: out of range", s)
	}
	return NewClockTime(h, m, sec), nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// dayNames maps wire/day-column spellings to weekdays.  The long forms
// ("tues", "thurs") match what the membership system's schedule editor
// has historically emitted.
var dayNames = map[string]time.Weekday{
	"mon":   time.Monday,
	"tue":   time.Tuesday,
	"tues":  time.Tuesday,
	"wed":   time.Wednesday,
	"thu":   time.Thursday,
	"thurs": time.Thursday,
	"fri":   time.Friday,
	"sat":   time.Saturday,
	"sun":   time.Sunday,
}

func ParseDay(s string) (time.Weekday, error) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// FormatDay returns the canonical three-letter spelling used on the wire
// and in storage.
func FormatDay(d time.Weekday) string {
	return strings.ToLower(d.String()[:3])
}

// Window is one weekly recurring span of access time.  Windows never
// cross midnight; the schedule editor splits overnight ranges into two
// windows before they reach a gatekeeper.
type Window struct {
	Day   time.Weekday
	Start ClockTime
	End   ClockTime
}

func (w Window) Validate() error {
	if w.Start < 0 || w.End > EndOfDay {
		return fmt.Errorf("window %s out of range", w)
	}
	if w.Start > w.End {
		return fmt.Errorf("window %s: start after end", w)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("%s %s-%s", FormatDay(w.Day), w.Start, w.End)
}

// ParseWindow builds a Window from its wire representation.
func ParseWindow(day, start, end string) (Window, error) {
	d, err := ParseDay(day)
	if err != nil {
		return Window{}, err
	}
	s, err := ParseClockTime(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClockTime(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Day: d, Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Instant is a point in the weekly cycle: a weekday plus a time of day.
// The caller supplies it; this package never reads the wall clock.
type Instant struct {
	Day  time.Weekday
	Time ClockTime
}

// At converts a wall-clock time to its position in the weekly cycle.
func At(t time.Time) Instant {
	return Instant{
		Day:  t.Weekday(),
		Time: NewClockTime(t.Hour(), t.Minute(), t.Second()),
	}
}

// WithinAny reports whether the instant falls inside at least one window.
// Bounds are inclusive on both ends, so a window with Start == End matches
// exactly that instant.  An empty window list grants nothing: no schedule
// means no access.
func WithinAny(windows []Window, at Instant) bool {
	for _, w := range windows {
		if w.Day == at.Day && w.Start <= at.Time && at.Time <= w.End {
			return true
		}
	}
	return false
}

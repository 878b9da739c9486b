package leave

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - Calendar day (time-of-day is never significant for leave)
// =============================================================================

// Date is a calendar day normalized to UTC midnight. The zero value means
// "not provided".
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Time returns the UTC midnight instant of the day.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the whole days from -> to (negative when to is earlier).
// Both ends sit on UTC midnight, so the Unix difference is an exact multiple
// of a day for any range, including ones longer than a time.Duration holds.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

// Duration is the inclusive day count of [from, to]; 1 for a single day.
func Duration(from, to Date) int {
	return DaysBetween(from, to) + 1
}

// Overlaps reports whether [aFrom, aTo] and [bFrom, bTo] share at least one day.
func Overlaps(aFrom, aTo, bFrom, bTo Date) bool {
	return !aTo.Before(bFrom) && !bTo.Before(aFrom)
}

// Clock supplies "today". Tests pin it with FixedClock.
type Clock func() time.Time

// Today returns the current calendar day for the clock (system clock when nil).
func (c Clock) Today() Date {
	if c == nil {
		return DateOf(time.Now())
	}
	return DateOf(c())
}

// FixedClock returns a Clock that always reports d.
func FixedClock(d Date) Clock {
	return func() time.Time { return d.Time() }
}

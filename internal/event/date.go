package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk and command-line form of a Date.
const DateLayout = "2006-01-02"

// Years outside this range cannot be written as YYYY-MM-DD.
const (
	MinYear = 1
	MaxYear = 9999
)

// maxOffsetDays bounds day offsets so AddDays cannot overflow.
const maxOffsetDays = (MaxYear - MinYear + 1) * 366

// Date is a calendar day with no time-of-day or zone. It is comparable and
// safe to use as a map key.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the Date for the given year, month and day. Out-of-range
// values are normalized the same way time.Date does (Feb 30 becomes Mar 1 or 2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseDateRelative accepts YYYY-MM-DD, "today", "tomorrow", "yesterday"
// and day offsets such as "+3" or "-1", all relative to ref. An empty string
// means ref. Failures are ValidationErrors.
func ParseDateRelative(s string, ref Date) (Date, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "today", "":
		return ref, nil
	case "tomorrow":
		return offsetDate(ref, 1)
	case "yesterday":
		return offsetDate(ref, -1)
	}

	if s[0] == '+' || s[0] == '-' {
		n, err := strconv.Atoi(s)
		if err != nil || n > maxOffsetDays || n < -maxOffsetDays {
			return Date{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid day offset %q", s)}
		}
		return offsetDate(ref, n)
	}

	d, err := ParseDate(s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func offsetDate(ref Date, n int) (Date, error) {
	d := ref.AddDays(n)
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Validate reports a ValidationError when d's year is outside
// MinYear..MaxYear.
func (d Date) Validate() error {
	if d.year < MinYear || d.year > MaxYear {
		return &ValidationError{Field: "date", Message: fmt.Sprintf("year %d is outside %d-%d", d.year, MinYear, MaxYear)}
	}
	return nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int((o.Time().Unix() - d.Time().Unix()) / 86400)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalText renders d as YYYY-MM-DD, which also makes Date usable as a JSON
// object key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses YYYY-MM-DD.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

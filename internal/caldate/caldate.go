// Package caldate provides the zero-padded ISO calendar date and 24-hour
// time-of-day values exchanged by the dashboard engine.
//
// Dates are civil dates with no zone attached. "Today" is always derived
// from an explicit evaluation instant in that instant's location.
package caldate

import (
	"errors"
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	ErrInvalidDate = errors.New("caldate: invalid date")
	ErrInvalidTime = errors.New("caldate: invalid time of day")
)

// Date is a calendar day. The zero value is "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse parses a zero-padded YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	if len(s) != len(dateLayout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Of(t), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Of returns the calendar date of t in t's own location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today is the local calendar date of the evaluation instant.
func Today(now time.Time) Date { return Of(now) }

// Tomorrow is the local calendar date following Today(now).
func Tomorrow(now time.Time) Date { return Of(now).AddDays(1) }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// utc anchors the date at UTC midnight so day arithmetic never crosses a DST
// boundary.
func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// UTC returns midnight of d in UTC.
func (d Date) UTC() time.Time { return d.utc() }

// In returns the instant at tod on d in loc.
func (d Date) In(loc *time.Location, tod TimeOfDay) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, tod.Hour(), tod.Minute(), 0, 0, loc)
}

func (d Date) AddDays(n int) Date { return Of(d.utc().AddDate(0, 0, n)) }

func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }

// Compare returns -1, 0 or +1; the order matches lexicographic comparison of
// the ISO strings.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// DaysUntil returns the signed number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.utc().Sub(d.utc()).Hours() / 24)
}

// WeekStart returns the Sunday on or before d.
func WeekStart(d Date) Date {
	return d.AddDays(-int(d.Weekday()))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// TimeOfDay is minutes since midnight, 0..1439.
type TimeOfDay int

const (
	Midnight  TimeOfDay = 0
	EndOfDay  TimeOfDay = 23*60 + 59
	minutesHr           = 60
)

// ParseTimeOfDay parses a 24-hour HH:MM string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay(t.Hour()*minutesHr + t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / minutesHr }
func (t TimeOfDay) Minute() int { return int(t) % minutesHr }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add returns t shifted by the given minutes, clamped to [00:00, 23:59].
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	v := int(t) + minutes
	if v > int(EndOfDay) {
		return EndOfDay
	}
	if v < 0 {
		return Midnight
	}
	return TimeOfDay(v)
}

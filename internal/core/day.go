package core

import (
	"fmt"
	"strconv"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar day, stored as midnight UTC so that day arithmetic
// never crosses a DST boundary.
type Day struct {
	time.Time
}

// NewDay creates a Day from year, month, day
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return Day{Time: t}, nil
}

func (d Day) AddDays(n int) Day {
	return Day{Time: d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the number of calendar days from earlier to d.
func (d Day) DaysSince(earlier Day) int {
	return int(d.Time.Sub(earlier.Time).Hours() / 24)
}

func (d Day) StartOfMonth() Day {
	return NewDay(d.Year(), d.Month(), 1)
}

func (d Day) Before(o Day) bool { return d.Time.Before(o.Time) }
func (d Day) After(o Day) bool  { return d.Time.After(o.Time) }
func (d Day) Equal(o Day) bool  { return d.Time.Equal(o.Time) }

func (d Day) String() string {
	return d.Format(dayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Day) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDay, b)
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween lists every day from first to last inclusive.
func DaysBetween(first, last Day) []Day {
	var out []Day
	for d := first; !d.After(last); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Clock decides which calendar day "today" is.
type Clock interface {
	Today() Day
}

// LocalClock reads the wall clock in Location.
type LocalClock struct {
	Location *time.Location
}

func (c LocalClock) Today() Day {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return DayOf(time.Now().In(loc))
}

// FixedClock always reports the same day.
type FixedClock Day

func (c FixedClock) Today() Day { return Day(c) }

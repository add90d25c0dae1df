// Package simtime provides the simulation time service used to gate goals by
// time of day.
package simtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDayLength is the length of one simulated day.
const DefaultDayLength = 24 * time.Hour

// Time is an instant of simulation time: the duration elapsed since the
// simulation started, on a day of DayLength.
type Time struct {
	Elapsed   time.Duration
	DayLength time.Duration
}

func (t Time) dayLength() time.Duration {
	if t.DayLength <= 0 {
		return DefaultDayLength
	}
	return t.DayLength
}

// Day returns the zero-based day number.
func (t Time) Day() int {
	return int(t.Elapsed / t.dayLength())
}

// Hour returns the time of day in hours, in [0, 24).
func (t Time) Hour() float64 {
	day := t.dayLength()
	into := t.Elapsed % day
	if into < 0 {
		into += day
	}
	return float64(into) / float64(day) * 24
}

// String renders the time as "day 2 06:30".
func (t Time) String() string {
	h := t.Hour()
	minutes := int(h*60 + 0.5)
	if minutes >= 24*60 {
		minutes = 24*60 - 1
	}
	return fmt.Sprintf("day %d %02d:%02d", t.Day(), minutes/60, minutes%60)
}

// IsNow reports whether t falls within window, which may be a Range, a
// *Range, or a string accepted by ParseRange. Any other window is never now.
func (t Time) IsNow(window any) bool {
	switch w := window.(type) {
	case Range:
		return w.Contains(t.Hour())
	case *Range:
		return w != nil && w.Contains(t.Hour())
	case string:
		r, err := ParseRange(w)
		if err != nil {
			return false
		}
		return r.Contains(t.Hour())
	default:
		return false
	}
}

// Range is a span of the day, in hours. From is inclusive and To exclusive.
// A range with From greater than To wraps around midnight.
type Range struct {
	From float64
	To   float64
}

// Contains reports whether hour falls within the range.
func (r Range) Contains(hour float64) bool {
	if r.From <= r.To {
		return hour >= r.From && hour < r.To
	}
	return hour >= r.From || hour < r.To
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return formatHour(r.From) + "-" + formatHour(r.To)
}

var namedRanges = map[string]Range{
	"morning":   {From: 6, To: 12},
	"afternoon": {From: 12, To: 18},
	"evening":   {From: 18, To: 22},
	"night":     {From: 22, To: 6},
	"day":       {From: 6, To: 18},
}

// ParseRange parses a named period (morning, afternoon, evening, night, day)
// or an "HH:MM-HH:MM" span.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if r, ok := namedRanges[s]; ok {
		return r, nil
	}
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return Range{}, fmt.Errorf("invalid time range %q", s)
	}
	f, err := parseHour(from)
	if err != nil {
		return Range{}, fmt.Errorf("invalid time range %q: %w", s, err)
	}
	t, err := parseHour(to)
	if err != nil {
		return Range{}, fmt.Errorf("invalid time range %q: %w", s, err)
	}
	return Range{From: f, To: t}, nil
}

func parseHour(s string) (float64, error) {
	s = strings.TrimSpace(s)
	hh, mm, hasMinutes := strings.Cut(s, ":")
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	m := 0
	if hasMinutes {
		if m, err = strconv.Atoi(mm); err != nil || m < 0 || m >= 60 {
			return 0, fmt.Errorf("invalid minutes %q", s)
		}
	}
	if h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("hour out of range %q", s)
	}
	return float64(h) + float64(m)/60, nil
}

func formatHour(h float64) string {
	minutes := int(h*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Clock is a deterministic simulation clock, advanced explicitly.
type Clock struct {
	DayLength time.Duration
	Step      time.Duration
	elapsed   time.Duration
}

// NewClock creates a clock starting at start (time into the first day).
func NewClock(dayLength, step, start time.Duration) *Clock {
	return &Clock{DayLength: dayLength, Step: step, elapsed: start}
}

// Now returns the current time.
func (c *Clock) Now() Time {
	return Time{Elapsed: c.elapsed, DayLength: c.DayLength}
}

// Tick advances the clock by Step and returns the new time.
func (c *Clock) Tick() Time {
	c.elapsed += c.Step
	return c.Now()
}

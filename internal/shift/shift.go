// Package shift computes the reporting windows used by stats and exports.
//
// All windows are half-open [Start, End) in the configured civil timezone:
//
//	morning  07:00 - 15:00
//	evening  15:00 - 04:00 next day (night hours belong to the evening shift)
//
// Calculator is a pure function of its inputs and safe for concurrent use.
package shift

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for an empty, reversed or oversized date range.
var ErrInvalidRange = errors.New("invalid date range")

// MaxPeriodDays bounds explicit period reports.
const MaxPeriodDays = 366

// Kind distinguishes the two daily shifts.
type Kind string

const (
	Morning Kind = "morning"
	Evening Kind = "evening"
)

// ParseKind accepts "morning" or "evening".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Morning, Evening:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown shift %q", s)
}

const (
	morningStartHour = 7
	eveningStartHour = 15
	eveningEndHour   = 23
	nightCutoffHour  = 4
)

// Window is a reporting interval. It is derived on demand and never stored.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  Kind      `json:"kind"`
	// Night is set when the window covers hours after midnight.
	Night bool `json:"night"`
	// NotStarted is set for the upcoming morning window between 04:00 and 07:00.
	NotStarted bool `json:"not_started"`
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Label is the human-readable name of the window.
func (w Window) Label() string {
	switch {
	case w.Kind == Morning && w.NotStarted:
		return "morning shift (not started yet)"
	case w.Kind == Morning:
		return "morning shift"
	case w.Night:
		return "evening shift (including night hours)"
	default:
		return "evening shift"
	}
}

// Span formats the clock range, e.g. "15:00-04:00".
func (w Window) Span() string {
	return w.Start.Format("15:04") + "-" + w.End.Format("15:04")
}

// Day is one calendar date of a period report, split into its two shifts.
type Day struct {
	Date    time.Time
	Morning Window
	Evening Window
}

// Calculator derives windows in a fixed timezone.
type Calculator struct {
	loc *time.Location
}

// NewCalculator returns a Calculator for loc (UTC when nil).
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Location returns the civil timezone.
func (c *Calculator) Location() *time.Location { return c.loc }

func (c *Calculator) at(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, c.loc)
}

func (c *Calculator) morning(day time.Time) Window {
	return Window{Start: c.at(day, morningStartHour), End: c.at(day, eveningStartHour), Kind: Morning}
}

// evening returns the extended evening window starting on day.
func (c *Calculator) evening(day time.Time) Window {
	return Window{
		Start: c.at(day, eveningStartHour),
		End:   c.at(day.AddDate(0, 0, 1), nightCutoffHour),
		Kind:  Evening,
		Night: true,
	}
}

// Current returns the shift in progress at now:
//
//	04:00-07:00  upcoming morning, NotStarted
//	07:00-15:00  morning
//	15:00-23:00  evening, 15:00-23:00
//	23:00-24:00  evening, 15:00-04:00
//	00:00-04:00  evening including night hours, 15:00-04:00
func (c *Calculator) Current(now time.Time) Window {
	now = now.In(c.loc)
	today := c.at(now, 0)
	switch h := now.Hour(); {
	case h < nightCutoffHour:
		return c.evening(today.AddDate(0, 0, -1))
	case h < morningStartHour:
		w := c.morning(today)
		w.NotStarted = true
		return w
	case h < eveningStartHour:
		return c.morning(today)
	case h < eveningEndHour:
		return Window{Start: c.at(today, eveningStartHour), End: c.at(today, eveningEndHour), Kind: Evening}
	default:
		// The range already reaches 04:00; the night label starts after midnight.
		w := c.evening(today)
		w.Night = false
		return w
	}
}

// Scheduled returns the window a timed report for kind covers on now's
// calendar date: morning 07:00-15:00, evening 15:00 to 04:00 the next day.
func (c *Calculator) Scheduled(kind Kind, now time.Time) Window {
	today := c.at(now.In(c.loc), 0)
	if kind == Morning {
		return c.morning(today)
	}
	return c.evening(today)
}

// Period splits the inclusive calendar range [from, to] into days. Only the
// dates of from and to are used.
func (c *Calculator) Period(from, to time.Time) ([]Day, error) {
	start := c.at(from.In(c.loc), 0)
	end := c.at(to.In(c.loc), 0)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(days) == MaxPeriodDays {
			return nil, fmt.Errorf("%w: longer than %d days", ErrInvalidRange, MaxPeriodDays)
		}
		days = append(days, Day{Date: d, Morning: c.morning(d), Evening: c.evening(d)})
	}
	return days, nil
}

// PeriodBounds is the overall [first morning start, last evening end) of a period.
func PeriodBounds(days []Day) (time.Time, time.Time) {
	if len(days) == 0 {
		return time.Time{}, time.Time{}
	}
	return days[0].Morning.Start, days[len(days)-1].Evening.End
}

// MonthRange returns [first day 00:00, first day of next month 00:00).
func (c *Calculator) MonthRange(year int, month time.Month) (time.Time, time.Time, error) {
	if month < time.January || month > time.December || year < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d-%02d", ErrInvalidRange, year, int(month))
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 1, 0), nil
}

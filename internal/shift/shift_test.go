package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var almaty = time.FixedZone("ALMT", 5*3600)

func at(d, h, m int) time.Time { return time.Date(2025, 7, d, h, m, 0, 0, almaty) }

func TestCurrent_Boundaries(t *testing.T) {
	c := NewCalculator(almaty)

	cases := []struct {
		name       string
		now        time.Time
		start, end time.Time
		kind       Kind
		night      bool
		notStarted bool
		label      string
	}{
		{"06:59 not started", at(10, 6, 59), at(10, 7, 0), at(10, 15, 0), Morning, false, true, "morning shift (not started yet)"},
		{"04:00 not started", at(10, 4, 0), at(10, 7, 0), at(10, 15, 0), Morning, false, true, "morning shift (not started yet)"},
		{"07:00 morning", at(10, 7, 0), at(10, 7, 0), at(10, 15, 0), Morning, false, false, "morning shift"},
		{"14:59 morning", at(10, 14, 59), at(10, 7, 0), at(10, 15, 0), Morning, false, false, "morning shift"},
		{"15:00 evening", at(10, 15, 0), at(10, 15, 0), at(10, 23, 0), Evening, false, false, "evening shift"},
		{"23:30 evening", at(10, 23, 30), at(10, 15, 0), at(11, 4, 0), Evening, false, false, "evening shift"},
		{"23:59 evening", at(10, 23, 59), at(10, 15, 0), at(11, 4, 0), Evening, false, false, "evening shift"},
		{"01:00 night", at(11, 1, 0), at(10, 15, 0), at(11, 4, 0), Evening, true, false, "evening shift (including night hours)"},
		{"00:00 night", at(11, 0, 0), at(10, 15, 0), at(11, 4, 0), Evening, true, false, "evening shift (including night hours)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := c.Current(tc.now)
			assert.True(t, w.Start.Equal(tc.start), "start %v", w.Start)
			assert.True(t, w.End.Equal(tc.end), "end %v", w.End)
			assert.Equal(t, tc.kind, w.Kind)
			assert.Equal(t, tc.night, w.Night)
			assert.Equal(t, tc.notStarted, w.NotStarted)
			assert.Equal(t, tc.label, w.Label())
		})
	}
}

func TestCurrent_ConvertsToCalculatorZone(t *testing.T) {
	c := NewCalculator(almaty)
	// 20:00 UTC is 01:00 in UTC+5 on the next day.
	w := c.Current(time.Date(2025, 7, 10, 20, 0, 0, 0, time.UTC))
	assert.True(t, w.Start.Equal(at(10, 15, 0)))
	assert.True(t, w.End.Equal(at(11, 4, 0)))
	assert.Equal(t, "15:00-04:00", w.Span())
}

func TestWindow_ContainsHalfOpen(t *testing.T) {
	w := NewCalculator(almaty).Scheduled(Morning, at(10, 12, 0))
	assert.True(t, w.Contains(at(10, 7, 0)))
	assert.True(t, w.Contains(at(10, 14, 59)))
	assert.False(t, w.Contains(at(10, 15, 0)))
	assert.False(t, w.Contains(at(10, 6, 59)))
}

func TestScheduled(t *testing.T) {
	c := NewCalculator(almaty)

	m := c.Scheduled(Morning, at(10, 15, 0))
	assert.True(t, m.Start.Equal(at(10, 7, 0)))
	assert.True(t, m.End.Equal(at(10, 15, 0)))

	e := c.Scheduled(Evening, at(10, 23, 0))
	assert.True(t, e.Start.Equal(at(10, 15, 0)))
	assert.True(t, e.End.Equal(at(11, 4, 0)))
	assert.True(t, e.Night)
}

func TestPeriod_InclusiveDays(t *testing.T) {
	c := NewCalculator(almaty)

	days, err := c.Period(at(29, 0, 0), at(31, 18, 0))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 29, days[0].Date.Day())
	assert.Equal(t, 31, days[2].Date.Day())

	for _, d := range days {
		assert.True(t, d.Morning.End.Equal(d.Evening.Start))
		assert.Equal(t, 7, d.Morning.Start.Hour())
		assert.Equal(t, 4, d.Evening.End.Hour())
	}
	// Month rollover.
	assert.Equal(t, time.August, days[2].Evening.End.Month())

	start, end := PeriodBounds(days)
	assert.True(t, start.Equal(at(29, 7, 0)))
	assert.True(t, end.Equal(time.Date(2025, 8, 1, 4, 0, 0, 0, almaty)))
}

func TestPeriod_SingleDayAndErrors(t *testing.T) {
	c := NewCalculator(almaty)

	days, err := c.Period(at(5, 0, 0), at(5, 0, 0))
	require.NoError(t, err)
	assert.Len(t, days, 1)

	_, err = c.Period(at(6, 0, 0), at(5, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, almaty)
	days, err = c.Period(from, from.AddDate(0, 0, MaxPeriodDays-1))
	require.NoError(t, err)
	assert.Len(t, days, MaxPeriodDays)

	_, err = c.Period(from, from.AddDate(0, 0, MaxPeriodDays))
	assert.ErrorIs(t, err, ErrInvalidRange)

	s, e := PeriodBounds(nil)
	assert.True(t, s.IsZero())
	assert.True(t, e.IsZero())
}

func TestMonthRange(t *testing.T) {
	c := NewCalculator(almaty)

	s, e, err := c.MonthRange(2024, time.December)
	require.NoError(t, err)
	assert.True(t, s.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, almaty)))
	assert.True(t, e.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, almaty)))

	_, _, err = c.MonthRange(2024, 13)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, _, err = c.MonthRange(2024, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("evening")
	require.NoError(t, err)
	assert.Equal(t, Evening, k)
	_, err = ParseKind("night")
	assert.Error(t, err)
}

func TestNewCalculator_NilLocation(t *testing.T) {
	assert.Equal(t, time.UTC, NewCalculator(nil).Location())
}

// Package utils provides small, generic helper functions used across
// different layers of the application: argument parsing shared by the bot
// commands, the admin API and the CLI.
package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the accepted calendar date format.
const DayLayout = time.DateOnly

// ErrBadDate is returned for a date, month or year that cannot be parsed.
var ErrBadDate = errors.New("bad date")

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseDay parses a YYYY-MM-DD date as midnight in loc (UTC when nil).
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, want YYYY-MM-DD", ErrBadDate, s)
	}
	return d, nil
}

// ParseMonthYear parses a month (1-12) and a four-digit year.
func ParseMonthYear(month, year string) (int, time.Month, error) {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("%w: month %q, want 1-12", ErrBadDate, month)
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1000 || y > 9999 {
		return 0, 0, fmt.Errorf("%w: year %q, want YYYY", ErrBadDate, year)
	}
	return y, time.Month(m), nil
}

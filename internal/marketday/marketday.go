// Package marketday normalizes temporal keys to date granularity and answers
// trading-calendar questions for the daily simulation loop.
//
// Every date that crosses a storage or provider boundary passes through
// Normalize first. Comparing a date-only key against a datetime with a time
// component silently misses exact-date lookups, so the conversion lives in
// one place.
package marketday

import "time"

// Normalize truncates t to UTC midnight, discarding any time-of-day and
// timezone component. Two timestamps on the same calendar day normalize to
// the same key.
func Normalize(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// IsTradingDay reports whether t is a weekday. Exchange holidays show up as
// missing bars in the data and are handled as per-day data gaps, matching
// how the simulator treats them.
func IsTradingDay(t time.Time) bool {
	wd := Normalize(t).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Next returns the day after t, normalized.
func Next(t time.Time) time.Time {
	return Normalize(t).AddDate(0, 0, 1)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	d := Next(t)
	for !IsTradingDay(d) {
		d = Next(d)
	}
	return d
}

// TradingDaysBetween counts the trading days in (from, to]. It is the age of
// a position entered on `from` as observed on day `to`: entering Monday and
// observing Wednesday yields 2.
func TradingDaysBetween(from, to time.Time) int {
	start := Normalize(from)
	end := Normalize(to)
	if !end.After(start) {
		return 0
	}

	n := 0
	for d := Next(start); !d.After(end); d = Next(d) {
		if IsTradingDay(d) {
			n++
		}
	}
	return n
}

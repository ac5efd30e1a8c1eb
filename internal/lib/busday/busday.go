// Package busday implements the business-day calendar arithmetic used
// to schedule installment due dates. Weekends are skipped; public
// holidays are not tracked.
package busday

import "time"

// IsBusinessDay reports whether the date falls on a weekday.
func IsBusinessDay(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NthBusinessDay returns the nth business day of the given month,
// n starting at 1.
func NthBusinessDay(year int, month time.Month, n int) time.Time {
	date := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	count := 0
	for {
		if IsBusinessDay(date) {
			count++
			if count == n {
				return date
			}
		}
		date = date.AddDate(0, 0, 1)
	}
}

// NextMonth returns the first day of the month after the given date.
func NextMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// Today truncates the given instant to a calendar date in UTC.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Package schedule derives and validates the occurrence calendar of a
// recurring subscription. All arithmetic happens in calendar-date space:
// a date is a (year, month, day) triple, never a timestamp.
package schedule

import (
	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
)

// Next returns the occurrence that follows anchor under the given cadence.
//
// Monthly and yearly steps keep the anchor's day-of-month and clamp to the
// last day of the target month when it is shorter (Jan 31 -> Feb 28/29,
// Feb 29 -> Feb 28 on non-leap years). Custom steps add intervalDays and
// fail with core.ErrInvalidCadence when the interval is missing or negative.
func Next(anchor core.Date, cadence core.Cadence, intervalDays int) (core.Date, error) {
	switch cadence {
	case core.Weekly:
		return anchor.AddDays(7), nil
	case core.Monthly:
		return addMonths(anchor, 1), nil
	case core.Yearly:
		return addYears(anchor, 1), nil
	case core.Custom:
		if intervalDays <= 0 {
			return core.Date{}, core.ErrInvalidCadence
		}
		return anchor.AddDays(intervalDays), nil
	default:
		return core.Date{}, core.ErrInvalidCadence
	}
}

// addMonths steps n months forward, clamping the day to the target month's
// length. time.AddDate is deliberately not used here: it normalizes Jan 31 +
// one month into Mar 2 instead of clamping to Feb 28/29.
func addMonths(d core.Date, n int) core.Date {
	year, month, day := d.Year(), d.Month(), d.Day()
	month += n
	for month > 12 {
		month -= 12
		year++
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

func addYears(d core.Date, n int) core.Date {
	year, month, day := d.Year()+n, d.Month(), d.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// daysInMonth returns the number of days in the given month.
// Day 0 of the following month normalizes to this month's last day.
func daysInMonth(year, month int) int {
	return core.NewDate(year, month+1, 0).Day()
}

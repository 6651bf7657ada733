package schedule

import (
	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
)

// OccurrencesDue lists, in ascending order, the occurrences of sub that fall
// due up to and including until. Callers use it to backfill missed logging.
//
// The horizon is min(until, endDate). An unanchored subscription contributes
// its start date first; an anchored one is walked from the anchor exclusive,
// so the last logged occurrence is never re-listed. The walk stops at the
// first occurrence beyond the horizon or after MaxWalkSteps, whichever comes
// first. An invalid custom interval surfaces as core.ErrInvalidCadence.
func OccurrencesDue(sub core.Subscription, until core.Date) ([]core.Date, error) {
	if sub.StartDate.IsZero() || until.IsZero() {
		return nil, nil
	}

	horizon := until
	if !sub.EndDate.IsZero() && sub.EndDate.Before(horizon) {
		horizon = sub.EndDate
	}

	var due []core.Date
	cur := sub.LastLogged
	if cur.IsZero() {
		if sub.StartDate.After(horizon) {
			return nil, nil
		}
		due = append(due, sub.StartDate)
		cur = sub.StartDate
	}

	for steps := 0; steps < MaxWalkSteps; steps++ {
		next, err := Next(cur, sub.Cadence, sub.IntervalDays)
		if err != nil {
			return nil, err
		}
		if next.After(horizon) {
			break
		}
		due = append(due, next)
		cur = next
	}
	return due, nil
}

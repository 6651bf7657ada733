package schedule

import (
	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
)

// MaxWalkSteps caps the forward walk through a subscription's occurrence
// sequence. A candidate not reached within this many steps is treated as
// pathologically far in the future rather than walked towards forever.
const MaxWalkSteps = 512

// Reason classifies why a candidate date is not a legitimate occurrence.
type Reason string

const (
	ReasonMissingStartDate Reason = "missing_start_date"
	ReasonMissingTarget    Reason = "missing_target"
	ReasonAfterEndDate     Reason = "after_end_date"
	ReasonBeforeStart      Reason = "before_start"
	ReasonNotAfterLast     Reason = "not_after_last"
	ReasonOffSchedule      Reason = "off_schedule"
	ReasonInvalidCadence   Reason = "invalid_cadence"
	ReasonTooFarFuture     Reason = "too_far_future"
	ReasonMissingAnchor    Reason = "missing_anchor"
)

// Result is the outcome of a schedule check. Steps counts the cadence
// applications the walk consumed; for two valid candidates against the same
// anchor the later one never consumes fewer steps.
type Result struct {
	OK     bool
	Reason Reason
	Steps  int
}

func ok(steps int) Result             { return Result{OK: true, Steps: steps} }
func fail(r Reason, steps int) Result { return Result{Reason: r, Steps: steps} }

// Check reports whether candidate is a legitimate occurrence of sub.
//
// Checks run in a fixed order and the first failure wins. When the
// subscription has a logged anchor the candidate must lie strictly after it;
// either way the occurrence sequence is walked forward from the anchor one
// cadence step at a time until the candidate is met (valid), overshot
// (off_schedule) or MaxWalkSteps is exhausted (too_far_future). The walk is
// preferred over closed-form date math because end-of-month clamping makes
// monthly and yearly steps variable-length; stepping with the same calculator
// that generates the schedule keeps the two in exact agreement.
func Check(sub core.Subscription, candidate core.Date) Result {
	if sub.StartDate.IsZero() {
		return fail(ReasonMissingStartDate, 0)
	}
	if candidate.IsZero() {
		return fail(ReasonMissingTarget, 0)
	}
	if !sub.EndDate.IsZero() && candidate.After(sub.EndDate) {
		return fail(ReasonAfterEndDate, 0)
	}
	if candidate.Before(sub.StartDate) {
		return fail(ReasonBeforeStart, 0)
	}

	anchor := sub.StartDate
	if !sub.LastLogged.IsZero() {
		// An anchor before the start date means the stored state is corrupt;
		// walking from it could validate dates outside the schedule.
		if sub.LastLogged.Before(sub.StartDate) {
			return fail(ReasonMissingAnchor, 0)
		}
		if !candidate.After(sub.LastLogged) {
			return fail(ReasonNotAfterLast, 0)
		}
		anchor = sub.LastLogged
	} else if candidate.Equal(sub.StartDate) {
		// The first occurrence is always valid; no walk needed.
		return ok(0)
	}

	cur := anchor
	for steps := 1; steps <= MaxWalkSteps; steps++ {
		next, err := Next(cur, sub.Cadence, sub.IntervalDays)
		if err != nil {
			return fail(ReasonInvalidCadence, steps)
		}
		if next.Equal(candidate) {
			return ok(steps)
		}
		if next.After(candidate) {
			return fail(ReasonOffSchedule, steps)
		}
		cur = next
	}
	return fail(ReasonTooFarFuture, MaxWalkSteps)
}

package subscription

import "time"

// ChargeOutcome is the result of a payment attempt against a subscription.
type ChargeOutcome string

const (
	ChargeSucceeded ChargeOutcome = "succeeded"
	ChargeFailed    ChargeOutcome = "failed"
)

// ApplyChargeOutcome moves the subscription into the state the charge outcome
// dictates: ACTIVE on success, PAUSED on failure. No other fields change.
// Defined for any current status; the payment saga does not gate on the prior
// state before applying it.
func ApplyChargeOutcome(s *Subscription, outcome ChargeOutcome) {
	if outcome == ChargeSucceeded {
		s.Status = StatusActive
	} else {
		s.Status = StatusPaused
	}
}

// ApplyRefund moves the subscription to PENDING unconditionally, whatever its
// prior status. This mirrors the billing system's established behaviour even
// for CANCELLED subscriptions; see DESIGN.md before changing it.
func ApplyRefund(s *Subscription) {
	s.Status = StatusPending
}

// CycleEnd returns the end of one billing-cycle period starting at start.
// Month-based cycles clamp to the last day of the target month, so
// Jan 31 + MONTHLY = Feb 29 in a leap year. An unrecognized cycle falls back
// to one month; it never errors.
func CycleEnd(start time.Time, cycle BillingCycle) time.Time {
	switch cycle {
	case CycleDaily:
		return start.AddDate(0, 0, 1)
	case CycleWeekly:
		return start.AddDate(0, 0, 7)
	case CycleMonthly:
		return addMonths(start, 1)
	case CycleQuarterly:
		return addMonths(start, 3)
	case CycleYearly:
		return addMonths(start, 12)
	default:
		return addMonths(start, 1)
	}
}

// Renew applies the renewal decision for a subscription whose billing period
// has elapsed. With auto-renew on, the billing window advances from now and
// the subscription stays ACTIVE; with auto-renew off it expires in place,
// dates untouched.
func Renew(s *Subscription, now time.Time) {
	if s.AutoRenew {
		s.StartDate = now
		s.EndDate = CycleEnd(now, s.BillingCycle)
		next := s.EndDate
		s.NextBillingDate = &next
		s.Status = StatusActive
		return
	}
	s.Status = StatusExpired
}

// ExpireTrial ends a trial whose window has elapsed. Trials are never
// converted to a paid charge automatically; they expire.
func ExpireTrial(s *Subscription) {
	s.Status = StatusExpired
}

// addMonths advances t by the given number of months, clamping the day of
// month to the last valid day of the target month (java.time semantics,
// unlike time.AddDate which normalizes Jan 31 + 1 month to Mar 2/3).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)

	if last := lastDayOfMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

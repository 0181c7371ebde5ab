package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCycleEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start time.Time
		cycle subscription.BillingCycle
		want  time.Time
	}{
		{"daily", date(2024, time.March, 15), subscription.CycleDaily, date(2024, time.March, 16)},
		{"weekly", date(2024, time.March, 15), subscription.CycleWeekly, date(2024, time.March, 22)},
		{"monthly", date(2024, time.March, 15), subscription.CycleMonthly, date(2024, time.April, 15)},
		{"quarterly", date(2024, time.January, 15), subscription.CycleQuarterly, date(2024, time.April, 15)},
		{"yearly", date(2024, time.March, 15), subscription.CycleYearly, date(2025, time.March, 15)},
		{"monthly clamps to leap february", date(2024, time.January, 31), subscription.CycleMonthly, date(2024, time.February, 29)},
		{"monthly clamps to short february", date(2023, time.January, 31), subscription.CycleMonthly, date(2023, time.February, 28)},
		{"monthly clamps 31st to 30-day month", date(2024, time.March, 31), subscription.CycleMonthly, date(2024, time.April, 30)},
		{"quarterly clamps", date(2024, time.November, 30), subscription.CycleQuarterly, date(2025, time.February, 28)},
		{"yearly clamps leap day", date(2024, time.February, 29), subscription.CycleYearly, date(2025, time.February, 28)},
		{"unknown cycle defaults to one month", date(2024, time.March, 15), subscription.BillingCycle("BIWEEKLY"), date(2024, time.April, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.CycleEnd(tt.start, tt.cycle))
		})
	}
}

func TestCycleEndPreservesClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.January, 31, 14, 30, 45, 0, time.UTC)
	end := subscription.CycleEnd(start, subscription.CycleMonthly)
	assert.Equal(t, time.Date(2024, time.February, 29, 14, 30, 45, 0, time.UTC), end)
}

func TestApplyChargeOutcome(t *testing.T) {
	t.Parallel()

	t.Run("success activates from any status", func(t *testing.T) {
		t.Parallel()
		for _, status := range []subscription.Status{
			subscription.StatusPending,
			subscription.StatusPaused,
			subscription.StatusCancelled,
			subscription.StatusExpired,
		} {
			sub := &subscription.Subscription{Status: status}
			subscription.ApplyChargeOutcome(sub, subscription.ChargeSucceeded)
			assert.Equal(t, subscription.StatusActive, sub.Status, "from %s", status)
		}
	})

	t.Run("failure pauses", func(t *testing.T) {
		t.Parallel()
		sub := &subscription.Subscription{Status: subscription.StatusActive}
		subscription.ApplyChargeOutcome(sub, subscription.ChargeFailed)
		assert.Equal(t, subscription.StatusPaused, sub.Status)
	})

	t.Run("only status changes", func(t *testing.T) {
		t.Parallel()
		next := date(2024, time.June, 1)
		sub := &subscription.Subscription{
			Status:          subscription.StatusPending,
			AutoRenew:       true,
			NextBillingDate: &next,
		}
		subscription.ApplyChargeOutcome(sub, subscription.ChargeSucceeded)
		assert.True(t, sub.AutoRenew)
		require.NotNil(t, sub.NextBillingDate)
		assert.Equal(t, next, *sub.NextBillingDate)
	})
}

func TestApplyRefund(t *testing.T) {
	t.Parallel()

	for _, status := range []subscription.Status{
		subscription.StatusActive,
		subscription.StatusCancelled,
		subscription.StatusExpired,
	} {
		sub := &subscription.Subscription{Status: status}
		subscription.ApplyRefund(sub)
		assert.Equal(t, subscription.StatusPending, sub.Status, "from %s", status)
	}
}

func TestRenew(t *testing.T) {
	t.Parallel()

	t.Run("auto renew advances billing window", func(t *testing.T) {
		t.Parallel()

		now := date(2024, time.March, 1)
		oldNext := date(2024, time.February, 28)
		sub := &subscription.Subscription{
			Status:          subscription.StatusActive,
			StartDate:       date(2024, time.January, 28),
			EndDate:         oldNext,
			NextBillingDate: &oldNext,
			BillingCycle:    subscription.CycleMonthly,
			AutoRenew:       true,
		}

		subscription.Renew(sub, now)

		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, now, sub.StartDate)
		assert.Equal(t, date(2024, time.April, 1), sub.EndDate)
		require.NotNil(t, sub.NextBillingDate)
		assert.Equal(t, sub.EndDate, *sub.NextBillingDate)
	})

	t.Run("no auto renew expires in place", func(t *testing.T) {
		t.Parallel()

		oldStart := date(2024, time.January, 28)
		oldEnd := date(2024, time.February, 28)
		sub := &subscription.Subscription{
			Status:          subscription.StatusActive,
			StartDate:       oldStart,
			EndDate:         oldEnd,
			NextBillingDate: &oldEnd,
			BillingCycle:    subscription.CycleMonthly,
			AutoRenew:       false,
		}

		subscription.Renew(sub, date(2024, time.March, 1))

		assert.Equal(t, subscription.StatusExpired, sub.Status)
		assert.Equal(t, oldStart, sub.StartDate)
		assert.Equal(t, oldEnd, sub.EndDate)
	})
}

func TestExpireTrial(t *testing.T) {
	t.Parallel()

	sub := &subscription.Subscription{Status: subscription.StatusTrial}
	subscription.ExpireTrial(sub)
	assert.Equal(t, subscription.StatusExpired, sub.Status)
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    subscription.Status
		active    bool
		trialing  bool
		cancelled bool
	}{
		{subscription.StatusActive, true, false, false},
		{subscription.StatusTrial, false, true, false},
		{subscription.StatusCancelled, false, false, true},
		{subscription.StatusPaused, false, false, false},
		{subscription.StatusExpired, false, false, false},
		{subscription.StatusPending, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			sub := &subscription.Subscription{Status: tt.status}
			assert.Equal(t, tt.active, sub.IsActive())
			assert.Equal(t, tt.trialing, sub.IsTrialing())
			assert.Equal(t, tt.cancelled, sub.IsCancelled())
		})
	}
}

func TestPlanTrialEndsAt(t *testing.T) {
	t.Parallel()

	start := date(2024, time.June, 1)

	plan := subscription.Plan{TrialDays: 14}
	assert.Equal(t, date(2024, time.June, 15), plan.TrialEndsAt(start))

	noTrial := subscription.Plan{}
	assert.Equal(t, start, noTrial.TrialEndsAt(start))
}

package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusTrial     Status = "TRIAL"
	StatusPaused    Status = "PAUSED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusPending   Status = "PENDING"
	StatusPastDue   Status = "PAST_DUE"
)

// BillingCycle is the recurring period after which a subscription is due for renewal.
type BillingCycle string

const (
	CycleDaily     BillingCycle = "DAILY"
	CycleWeekly    BillingCycle = "WEEKLY"
	CycleMonthly   BillingCycle = "MONTHLY"
	CycleQuarterly BillingCycle = "QUARTERLY"
	CycleYearly    BillingCycle = "YEARLY"
)

// Subscription represents a user's entitlement under a plan.
// PlanName and Price are denormalized snapshots of the plan at subscribe time
// so later plan edits don't rewrite billing history.
type Subscription struct {
	ID                 string
	UserID             string // immutable once set
	PlanID             string
	PlanName           string
	Status             Status
	StartDate          time.Time
	EndDate            time.Time
	NextBillingDate    *time.Time // nil once cancelled
	TrialEndDate       *time.Time // set only when TrialDays > 0
	Price              decimal.Decimal
	Currency           string
	BillingCycle       BillingCycle
	TrialDays          int
	AutoRenew          bool
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive returns true if the subscription is in paid active status.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsTrialing returns true if the subscription is in its trial period.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrial
}

// IsCancelled returns true if the subscription has been cancelled.
func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

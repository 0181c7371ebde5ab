package subscription

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Plan is an immutable-per-version catalog entry users subscribe to.
// Code is unique and stored upper-cased.
type Plan struct {
	ID           string
	Code         string
	Name         string
	Description  string
	Price        decimal.Decimal
	Currency     string
	BillingCycle BillingCycle
	TrialDays    int
	IsActive     bool
	Limits       PlanLimits
	SortOrder    int
	CreatedAt    time.Time
}

// PlanLimits bounds what a subscriber may consume under a plan.
// StorageLimit is measured in bytes; APIRateLimit in requests per hour.
type PlanLimits struct {
	MaxUsers     int
	MaxProjects  int
	StorageLimit int64
	APIRateLimit int
}

// Normalize applies catalog defaults and canonical formatting in place.
func (p *Plan) Normalize() {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Currency == "" {
		p.Currency = "USD"
	}
}

// Validate checks the fields an administrator must supply for a catalog entry.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return ErrPlanCodeRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrPlanNameRequired
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.BillingCycle == "" {
		return ErrPlanCycleRequired
	}
	if p.TrialDays < 0 {
		return ErrInvalidTrialDays
	}
	return nil
}

// TrialEndsAt calculates when the trial period ends for a subscription
// started at startedAt. Returns startedAt unchanged if no trial is available.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays)
}

package subscription

import (
	"context"
	"time"
)

// Store defines the interface for subscription persistence.
// Implementations must return ErrNotFound when a subscription does not exist
// and serialize concurrent updates to the same subscription ID.
type Store interface {
	// Get retrieves a subscription by ID.
	Get(ctx context.Context, id string) (*Subscription, error)

	// Save creates or updates a subscription.
	Save(ctx context.Context, s *Subscription) error

	// ListByUser returns all subscriptions owned by the user.
	ListByUser(ctx context.Context, userID string) ([]*Subscription, error)

	// FindByUserAndStatus returns the first subscription of the user in the
	// given status, or ErrNotFound.
	FindByUserAndStatus(ctx context.Context, userID string, status Status) (*Subscription, error)

	// ExistsActive reports whether the user already holds an ACTIVE
	// subscription for the plan.
	ExistsActive(ctx context.Context, userID, planID string) (bool, error)

	// DueForRenewal returns ACTIVE subscriptions whose next billing date is
	// before the given instant.
	DueForRenewal(ctx context.Context, now time.Time) ([]*Subscription, error)

	// TrialsEnding returns TRIAL subscriptions whose trial end date is before
	// the given instant.
	TrialsEnding(ctx context.Context, now time.Time) ([]*Subscription, error)
}

// PlanStore defines the interface for plan catalog persistence.
// Implementations must return ErrPlanNotFound for missing plans.
type PlanStore interface {
	Get(ctx context.Context, id string) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]*Plan, error)
	// ListActive returns active plans ordered by sort order.
	ListActive(ctx context.Context) ([]*Plan, error)
	Save(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, id string) error
}

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

// Service manages the subscription side of the billing domain: subscribing a
// user to a plan and the direct user actions (cancel, pause, resume, update).
// Charge-driven transitions go through the Transitioner port instead.
type Service struct {
	store     Store
	planStore PlanStore
	log       *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithLogger sets the service logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source, useful for tests with fixed time values.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a subscription service. Panics if store or planStore is
// nil to fail fast during initialization.
func NewService(store Store, planStore PlanStore, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if planStore == nil {
		panic("subscription: PlanStore is required")
	}

	s := &Service{
		store:     store,
		planStore: planStore,
		log:       slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubscribeParams carries the user's subscribe request. TrialDays and
// AutoRenew default to the plan's trial days and true when nil.
type SubscribeParams struct {
	PlanID    string
	TrialDays *int
	AutoRenew *bool
}

// Subscribe creates a subscription for the user under the given plan.
// New subscriptions start ACTIVE, or TRIAL when a trial period applies.
func (s *Service) Subscribe(ctx context.Context, userID string, params SubscribeParams) (*Subscription, error) {
	if params.PlanID == "" {
		return nil, ErrPlanIDRequired
	}

	exists, err := s.store.ExistsActive(ctx, userID, params.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing subscriptions: %w", err)
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	plan, err := s.planStore.Get(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	now := s.now()
	end := CycleEnd(now, plan.BillingCycle)
	next := end

	sub := &Subscription{
		ID:              uuid.NewString(),
		UserID:          userID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Status:          StatusActive,
		StartDate:       now,
		EndDate:         end,
		NextBillingDate: &next,
		Price:           plan.Price,
		Currency:        plan.Currency,
		BillingCycle:    plan.BillingCycle,
		AutoRenew:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The request may shorten or extend the plan's trial.
	trial := *plan
	if params.TrialDays != nil {
		trial.TrialDays = *params.TrialDays
	}
	if trial.TrialDays < 0 {
		return nil, ErrInvalidTrialDays
	}
	sub.TrialDays = trial.TrialDays
	if trial.TrialDays > 0 {
		sub.Status = StatusTrial
		trialEnd := trial.TrialEndsAt(now)
		sub.TrialEndDate = &trialEnd
	}

	if params.AutoRenew != nil {
		sub.AutoRenew = *params.AutoRenew
	}

	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.log.InfoContext(ctx, "created subscription",
		logger.SubscriptionID(sub.ID),
		logger.UserID(userID),
		logger.PlanID(plan.ID))
	return sub, nil
}

// Get returns the user's subscription by ID. Subscriptions of other users are
// reported as not found, matching the lookup-by-owner semantics of the store.
func (s *Service) Get(ctx context.Context, subscriptionID, userID string) (*Subscription, error) {
	sub, err := s.store.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrNotFound
	}
	return sub, nil
}

// ListByUser returns all subscriptions owned by the user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Subscription, error) {
	return s.store.ListByUser(ctx, userID)
}

// ActiveFor returns the user's ACTIVE subscription, or ErrNoActive.
func (s *Service) ActiveFor(ctx context.Context, userID string) (*Subscription, error) {
	sub, err := s.store.FindByUserAndStatus(ctx, userID, StatusActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoActive
		}
		return nil, err
	}
	return sub, nil
}

// UpdateParams carries the mutable subscription settings. Nil fields are left
// unchanged. Setting PlanID switches the plan (upgrade/downgrade), restarting
// the billing window from now.
type UpdateParams struct {
	AutoRenew *bool
	PlanID    *string
}

// Update applies user-driven settings changes to a subscription.
func (s *Service) Update(ctx context.Context, subscriptionID, userID string, params UpdateParams) (*Subscription, error) {
	sub, err := s.Get(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}

	if params.AutoRenew != nil {
		sub.AutoRenew = *params.AutoRenew
	}

	if params.PlanID != nil {
		plan, err := s.planStore.Get(ctx, *params.PlanID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		sub.PlanID = plan.ID
		sub.PlanName = plan.Name
		sub.Price = plan.Price
		sub.BillingCycle = plan.BillingCycle
		sub.EndDate = CycleEnd(now, plan.BillingCycle)
		next := sub.EndDate
		sub.NextBillingDate = &next

		s.log.InfoContext(ctx, "subscription plan changed",
			logger.SubscriptionID(sub.ID),
			logger.UserID(userID),
			logger.PlanID(plan.ID))
	}

	sub.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	return sub, nil
}

// Cancel cancels the user's subscription, recording the reason. The end date
// is moved to now and the next billing date cleared so the scheduler never
// picks it up again.
func (s *Service) Cancel(ctx context.Context, subscriptionID, userID, reason string) (*Subscription, error) {
	sub, err := s.Get(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}

	now := s.now()
	sub.Status = StatusCancelled
	sub.CancellationReason = reason
	sub.EndDate = now
	sub.NextBillingDate = nil
	sub.UpdatedAt = now

	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.log.InfoContext(ctx, "cancelled subscription",
		logger.SubscriptionID(sub.ID),
		logger.UserID(userID))
	return sub, nil
}

// Pause pauses an ACTIVE subscription.
func (s *Service) Pause(ctx context.Context, subscriptionID, userID string) (*Subscription, error) {
	sub, err := s.Get(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive() {
		return nil, ErrNotPausable
	}

	sub.Status = StatusPaused
	sub.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.log.InfoContext(ctx, "paused subscription",
		logger.SubscriptionID(sub.ID),
		logger.UserID(userID))
	return sub, nil
}

// Resume reactivates a PAUSED subscription.
func (s *Service) Resume(ctx context.Context, subscriptionID, userID string) (*Subscription, error) {
	sub, err := s.Get(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPaused {
		return nil, ErrNotResumable
	}

	sub.Status = StatusActive
	sub.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.log.InfoContext(ctx, "resumed subscription",
		logger.SubscriptionID(sub.ID),
		logger.UserID(userID))
	return sub, nil
}

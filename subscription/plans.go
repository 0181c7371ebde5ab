package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

// PlanService manages the plan catalog. Administrative only; subscribers read
// plans through Service.
type PlanService struct {
	store PlanStore
	log   *slog.Logger
	now   func() time.Time
}

// NewPlanService creates a plan catalog service. Panics on a nil store.
func NewPlanService(store PlanStore, opts ...PlanServiceOption) *PlanService {
	if store == nil {
		panic("subscription: PlanStore is required")
	}

	s := &PlanService{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlanServiceOption configures a PlanService instance.
type PlanServiceOption func(*PlanService)

// WithPlanLogger sets the plan service logger. Nil loggers are ignored.
func WithPlanLogger(log *slog.Logger) PlanServiceOption {
	return func(s *PlanService) {
		if log != nil {
			s.log = log
		}
	}
}

// List returns all plans, active or not.
func (s *PlanService) List(ctx context.Context) ([]*Plan, error) {
	return s.store.List(ctx)
}

// ListActive returns plans available for signup, ordered by sort order.
func (s *PlanService) ListActive(ctx context.Context) ([]*Plan, error) {
	return s.store.ListActive(ctx)
}

// Get returns a plan by ID.
func (s *PlanService) Get(ctx context.Context, id string) (*Plan, error) {
	return s.store.Get(ctx, id)
}

// GetByCode returns a plan by its upper-cased code.
func (s *PlanService) GetByCode(ctx context.Context, code string) (*Plan, error) {
	return s.store.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Create validates and stores a new catalog entry. Plan codes are
// case-normalized and must be unique.
func (s *PlanService) Create(ctx context.Context, plan *Plan) (*Plan, error) {
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.store.ExistsByCode(ctx, plan.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check plan code: %w", err)
	}
	if taken {
		return nil, ErrPlanCodeTaken
	}

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = s.now()

	if err := s.store.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.log.InfoContext(ctx, "created plan", logger.PlanID(plan.ID), slog.String("code", plan.Code))
	return plan, nil
}

// PlanUpdate carries partial plan edits. Nil fields are left unchanged.
type PlanUpdate struct {
	Code         *string
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	Currency     *string
	BillingCycle *BillingCycle
	TrialDays    *int
	IsActive     *bool
	Limits       *PlanLimits
	SortOrder    *int
}

// Update applies a partial edit to an existing plan. A code change is checked
// for collisions against other plans.
func (s *PlanService) Update(ctx context.Context, id string, update PlanUpdate) (*Plan, error) {
	plan, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Code != nil {
		newCode := strings.ToUpper(strings.TrimSpace(*update.Code))
		if newCode != plan.Code {
			taken, err := s.store.ExistsByCode(ctx, newCode)
			if err != nil {
				return nil, fmt.Errorf("failed to check plan code: %w", err)
			}
			if taken {
				return nil, ErrPlanCodeTaken
			}
		}
		plan.Code = newCode
	}
	if update.Name != nil {
		plan.Name = *update.Name
	}
	if update.Description != nil {
		plan.Description = *update.Description
	}
	if update.Price != nil {
		if !update.Price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		plan.Price = *update.Price
	}
	if update.Currency != nil {
		plan.Currency = *update.Currency
	}
	if update.BillingCycle != nil {
		plan.BillingCycle = *update.BillingCycle
	}
	if update.TrialDays != nil {
		if *update.TrialDays < 0 {
			return nil, ErrInvalidTrialDays
		}
		plan.TrialDays = *update.TrialDays
	}
	if update.IsActive != nil {
		plan.IsActive = *update.IsActive
	}
	if update.Limits != nil {
		plan.Limits = *update.Limits
	}
	if update.SortOrder != nil {
		plan.SortOrder = *update.SortOrder
	}

	if err := s.store.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	return plan, nil
}

// Delete removes a plan from the catalog.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// ToggleActive flips a plan's availability for signup.
func (s *PlanService) ToggleActive(ctx context.Context, id string) (*Plan, error) {
	plan, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plan.IsActive = !plan.IsActive
	if err := s.store.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	return plan, nil
}

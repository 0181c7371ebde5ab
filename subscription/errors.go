package subscription

import "errors"

var (
	ErrNotFound          = errors.New("subscription not found")
	ErrNotOwned          = errors.New("subscription does not belong to user")
	ErrAlreadySubscribed = errors.New("user already has an active subscription for this plan")
	ErrAlreadyCancelled  = errors.New("subscription already cancelled")
	ErrNotPausable       = errors.New("only active subscriptions can be paused")
	ErrNotResumable      = errors.New("only paused subscriptions can be resumed")
	ErrNoActive          = errors.New("no active subscription found")

	ErrPlanNotFound      = errors.New("subscription plan not found")
	ErrPlanInactive      = errors.New("subscription plan is not active")
	ErrPlanIDRequired    = errors.New("plan ID is required")
	ErrPlanCodeRequired  = errors.New("plan code is required")
	ErrPlanNameRequired  = errors.New("plan name is required")
	ErrPlanCycleRequired = errors.New("billing cycle is required")
	ErrPlanCodeTaken     = errors.New("plan code already exists")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrInvalidTrialDays  = errors.New("trial days must not be negative")
)

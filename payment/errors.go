package payment

import "errors"

var (
	// ErrNotFound is returned when a payment does not exist.
	ErrNotFound = errors.New("payment not found")
	// ErrSubscriptionNotFound is returned when the referenced subscription
	// does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrNotOwned is returned when the payment or subscription belongs to a
	// different user than the caller.
	ErrNotOwned = errors.New("payment does not belong to user")
	// ErrNotRefundable is returned when cancelling a payment that never
	// succeeded.
	ErrNotRefundable = errors.New("only successful payments can be refunded")
	// ErrAlreadyRefunded is returned on a second cancellation of the same
	// payment.
	ErrAlreadyRefunded = errors.New("payment already refunded")
	// ErrInvalidAmount is returned for a non-positive charge amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrTokenRequired is returned when the payment method token is missing.
	ErrTokenRequired = errors.New("payment method token is required")
	// ErrProviderFailure wraps transport or business failures from the
	// payment provider, including call timeouts.
	ErrProviderFailure = errors.New("payment provider failure")
)

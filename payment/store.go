package payment

import "context"

// Store is the payment persistence port. Implementations must return
// ErrNotFound for missing payments and serialize concurrent updates to the
// same payment ID.
type Store interface {
	// Get retrieves a payment by ID.
	Get(ctx context.Context, id string) (*Payment, error)

	// Save creates or updates a payment.
	Save(ctx context.Context, p *Payment) error

	// ListByUser returns the user's payments, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Payment, error)
}

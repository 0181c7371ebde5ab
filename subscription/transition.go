package subscription

import (
	"context"
	"time"
)

// Transitioner is the narrow view of the subscription aggregate the payment
// saga depends on. Charging crosses an aggregate boundary without a shared
// transaction; keeping the compensating step behind this small port makes it
// an explicit, testable contract instead of an incidental store write.
type Transitioner interface {
	// Find returns the subscription for precondition checks (existence,
	// ownership, plan name for messages).
	Find(ctx context.Context, id string) (*Subscription, error)

	// ApplyChargeOutcome records a charge result against the subscription:
	// ACTIVE on success, PAUSED on failure.
	ApplyChargeOutcome(ctx context.Context, id string, outcome ChargeOutcome) error

	// ApplyRefund records a refunded charge against the subscription,
	// moving it to PENDING.
	ApplyRefund(ctx context.Context, id string) error
}

// StoreTransitioner implements Transitioner over a Store with per-call
// read-modify-write. It relies on the store to serialize concurrent updates
// to the same subscription ID.
type StoreTransitioner struct {
	store Store
	now   func() time.Time
}

// NewStoreTransitioner wraps a Store in the Transitioner port.
func NewStoreTransitioner(store Store) *StoreTransitioner {
	return &StoreTransitioner{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (t *StoreTransitioner) Find(ctx context.Context, id string) (*Subscription, error) {
	return t.store.Get(ctx, id)
}

func (t *StoreTransitioner) ApplyChargeOutcome(ctx context.Context, id string, outcome ChargeOutcome) error {
	s, err := t.store.Get(ctx, id)
	if err != nil {
		return err
	}

	ApplyChargeOutcome(s, outcome)
	s.UpdatedAt = t.now()
	return t.store.Save(ctx, s)
}

func (t *StoreTransitioner) ApplyRefund(ctx context.Context, id string) error {
	s, err := t.store.Get(ctx, id)
	if err != nil {
		return err
	}

	ApplyRefund(s)
	s.UpdatedAt = t.now()
	return t.store.Save(ctx, s)
}

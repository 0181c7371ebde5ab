package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Provider is the outbound port to the external payment provider.
// Both calls block for a network round trip; wrap a Provider with
// NewTimeoutProvider so a hung provider surfaces as ErrProviderFailure
// instead of stalling the saga.
type Provider interface {
	// Charge charges the payment method behind the opaque token and returns
	// the provider's transaction reference.
	Charge(ctx context.Context, token string, amount decimal.Decimal) (string, error)

	// Refund refunds the given amount of a prior transaction and returns
	// the provider's refund reference.
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error)
}

// DefaultProviderTimeout bounds each provider call unless overridden.
const DefaultProviderTimeout = 10 * time.Second

// TimeoutProvider decorates a Provider with a per-call deadline. Expiry is
// reported as ErrProviderFailure like any other provider error.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// NewTimeoutProvider wraps a provider with a per-call timeout. Non-positive
// timeouts fall back to DefaultProviderTimeout. Panics on a nil provider.
func NewTimeoutProvider(inner Provider, timeout time.Duration) *TimeoutProvider {
	if inner == nil {
		panic("payment: Provider is required")
	}
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &TimeoutProvider{inner: inner, timeout: timeout}
}

func (t *TimeoutProvider) Charge(ctx context.Context, token string, amount decimal.Decimal) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	ref, err := t.inner.Charge(ctx, token, amount)
	if err != nil {
		return "", wrapProviderErr(err)
	}
	return ref, nil
}

func (t *TimeoutProvider) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	ref, err := t.inner.Refund(ctx, transactionID, amount)
	if err != nil {
		return "", wrapProviderErr(err)
	}
	return ref, nil
}

func wrapProviderErr(err error) error {
	if errors.Is(err, ErrProviderFailure) {
		return err
	}
	return errors.Join(ErrProviderFailure, err)
}

package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaSirikonda/smart-subscription/notification"
	"github.com/ShivaSirikonda/smart-subscription/payment"
	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

type sagaEnv struct {
	payments *payment.MemoryStore
	subs     *subscription.MemoryStore
	events   *notification.MemoryPublisher
	svc      *payment.Service
	sub      *subscription.Subscription
}

func newSagaEnv(t *testing.T, provider payment.Provider) *sagaEnv {
	t.Helper()

	subs := subscription.NewMemoryStore()
	sub := &subscription.Subscription{
		ID:           uuid.NewString(),
		UserID:       "user-1",
		PlanID:       "plan-1",
		PlanName:     "Pro",
		Status:       subscription.StatusPending,
		Price:        decimal.NewFromFloat(50),
		Currency:     "USD",
		BillingCycle: subscription.CycleMonthly,
	}
	require.NoError(t, subs.Save(context.Background(), sub))

	payments := payment.NewMemoryStore()
	events := notification.NewMemoryPublisher()
	svc := payment.NewService(payments, provider, subscription.NewStoreTransitioner(subs),
		payment.WithPublisher(events))

	return &sagaEnv{payments: payments, subs: subs, events: events, svc: svc, sub: sub}
}

func fastProvider() payment.Provider {
	return payment.NewSimulatedProvider(payment.WithLatency(0))
}

func (e *sagaEnv) subscriptionStatus(t *testing.T) subscription.Status {
	t.Helper()
	sub, err := e.subs.Get(context.Background(), e.sub.ID)
	require.NoError(t, err)
	return sub.Status
}

func TestProcessCharge(t *testing.T) {
	t.Parallel()

	t.Run("successful charge activates subscription", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())
		receipt, err := env.svc.Process(context.Background(), "user-1", payment.ProcessParams{
			SubscriptionID: env.sub.ID,
			Amount:         decimal.NewFromFloat(50),
			Token:          "tok_valid",
		})
		require.NoError(t, err)

		assert.Equal(t, payment.StatusSucceeded, receipt.Status)
		assert.NotEmpty(t, receipt.TransactionID)
		assert.Nil(t, receipt.RefundAmount, "no refund recorded yet")
		assert.Equal(t, subscription.StatusActive, env.subscriptionStatus(t))

		notifs := env.events.Messages(notification.ChannelNotifications)
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.TypePaymentSuccess, notifs[0].Payload["type"])

		domainEvents := env.events.Messages(notification.ChannelPaymentEvents)
		require.Len(t, domainEvents, 1)
		assert.Equal(t, notification.TypePaymentSuccess, domainEvents[0].Payload["eventType"])
	})

	t.Run("declined charge pauses subscription", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())
		_, err := env.svc.Process(context.Background(), "user-1", payment.ProcessParams{
			SubscriptionID: env.sub.ID,
			Amount:         decimal.NewFromFloat(50),
			Token:          payment.FailToken,
		})
		assert.ErrorIs(t, err, payment.ErrProviderFailure)

		assert.Equal(t, subscription.StatusPaused, env.subscriptionStatus(t))

		payments, perr := env.payments.ListByUser(context.Background(), "user-1")
		require.NoError(t, perr)
		require.Len(t, payments, 1)
		assert.Equal(t, payment.StatusFailed, payments[0].Status)
		assert.Empty(t, payments[0].TransactionID)

		notifs := env.events.Messages(notification.ChannelNotifications)
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.TypePaymentFailed, notifs[0].Payload["type"])
		assert.Empty(t, env.events.Messages(notification.ChannelPaymentEvents))
	})

	t.Run("preconditions create no payment record", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())

		tests := []struct {
			name   string
			userID string
			params payment.ProcessParams
			want   error
		}{
			{
				name:   "non-positive amount",
				userID: "user-1",
				params: payment.ProcessParams{SubscriptionID: env.sub.ID, Amount: decimal.Zero, Token: "tok_valid"},
				want:   payment.ErrInvalidAmount,
			},
			{
				name:   "missing token",
				userID: "user-1",
				params: payment.ProcessParams{SubscriptionID: env.sub.ID, Amount: decimal.NewFromInt(50)},
				want:   payment.ErrTokenRequired,
			},
			{
				name:   "unknown subscription",
				userID: "user-1",
				params: payment.ProcessParams{SubscriptionID: "missing", Amount: decimal.NewFromInt(50), Token: "tok_valid"},
				want:   payment.ErrSubscriptionNotFound,
			},
			{
				name:   "foreign subscription",
				userID: "user-2",
				params: payment.ProcessParams{SubscriptionID: env.sub.ID, Amount: decimal.NewFromInt(50), Token: "tok_valid"},
				want:   payment.ErrNotOwned,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.svc.Process(context.Background(), tt.userID, tt.params)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		payments, err := env.payments.ListByUser(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Empty(t, payments, "precondition failures must not create payment records")
	})

	t.Run("compensation failure is swallowed", func(t *testing.T) {
		t.Parallel()

		subs := subscription.NewMemoryStore()
		sub := &subscription.Subscription{ID: "sub-1", UserID: "user-1", PlanName: "Pro"}
		require.NoError(t, subs.Save(context.Background(), sub))

		svc := payment.NewService(payment.NewMemoryStore(), fastProvider(),
			&brokenTransitioner{store: subs})

		receipt, err := svc.Process(context.Background(), "user-1", payment.ProcessParams{
			SubscriptionID: "sub-1",
			Amount:         decimal.NewFromInt(50),
			Token:          "tok_valid",
		})
		require.NoError(t, err, "a failed subscription transition must not fail the charge")
		assert.Equal(t, payment.StatusSucceeded, receipt.Status)
	})
}

// brokenTransitioner finds subscriptions but fails every transition.
type brokenTransitioner struct {
	store subscription.Store
}

func (b *brokenTransitioner) Find(ctx context.Context, id string) (*subscription.Subscription, error) {
	return b.store.Get(ctx, id)
}

func (b *brokenTransitioner) ApplyChargeOutcome(ctx context.Context, id string, outcome subscription.ChargeOutcome) error {
	return errors.New("connection reset")
}

func (b *brokenTransitioner) ApplyRefund(ctx context.Context, id string) error {
	return errors.New("connection reset")
}

// refundFailProvider succeeds charges and fails refunds.
type refundFailProvider struct {
	payment.Provider
}

func (p *refundFailProvider) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	return "", errors.New("refund rejected")
}

func TestCancelRefund(t *testing.T) {
	t.Parallel()

	charge := func(t *testing.T, env *sagaEnv) *payment.Receipt {
		t.Helper()
		receipt, err := env.svc.Process(context.Background(), "user-1", payment.ProcessParams{
			SubscriptionID: env.sub.ID,
			Amount:         decimal.NewFromFloat(50),
			Token:          "tok_valid",
		})
		require.NoError(t, err)
		return receipt
	}

	t.Run("charge then cancel end to end", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())
		receipt := charge(t, env)
		assert.Equal(t, subscription.StatusActive, env.subscriptionStatus(t))

		refunded, err := env.svc.Cancel(context.Background(), "user-1", receipt.PaymentID)
		require.NoError(t, err)

		assert.Equal(t, payment.StatusRefunded, refunded.Status)
		require.NotNil(t, refunded.RefundAmount)
		assert.True(t, refunded.RefundAmount.Equal(decimal.NewFromFloat(49.50)),
			"refund of $50.00 should be $49.50, got %s", refunded.RefundAmount)
		assert.Equal(t, subscription.StatusPending, env.subscriptionStatus(t))

		stored, err := env.payments.Get(context.Background(), receipt.PaymentID)
		require.NoError(t, err)
		assert.Regexp(t, `^ref_`, stored.RefundTransactionID)

		notifs := env.events.Messages(notification.ChannelNotifications)
		require.Len(t, notifs, 2)
		assert.Equal(t, notification.TypePaymentRefunded, notifs[1].Payload["type"])
	})

	t.Run("second cancellation conflicts and changes nothing", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())
		receipt := charge(t, env)

		_, err := env.svc.Cancel(context.Background(), "user-1", receipt.PaymentID)
		require.NoError(t, err)

		_, err = env.svc.Cancel(context.Background(), "user-1", receipt.PaymentID)
		assert.ErrorIs(t, err, payment.ErrAlreadyRefunded)

		stored, err := env.payments.Get(context.Background(), receipt.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusRefunded, stored.Status)
	})

	t.Run("failed payments are not refundable", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())
		_, err := env.svc.Process(context.Background(), "user-1", payment.ProcessParams{
			SubscriptionID: env.sub.ID,
			Amount:         decimal.NewFromFloat(50),
			Token:          payment.FailToken,
		})
		require.Error(t, err)

		payments, err := env.payments.ListByUser(context.Background(), "user-1")
		require.NoError(t, err)
		require.Len(t, payments, 1)

		_, err = env.svc.Cancel(context.Background(), "user-1", payments[0].ID)
		assert.ErrorIs(t, err, payment.ErrNotRefundable)
	})

	t.Run("precondition order", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, fastProvider())
		receipt := charge(t, env)

		_, err := env.svc.Cancel(context.Background(), "user-1", "missing")
		assert.ErrorIs(t, err, payment.ErrNotFound)

		_, err = env.svc.Cancel(context.Background(), "user-2", receipt.PaymentID)
		assert.ErrorIs(t, err, payment.ErrNotOwned)
	})

	t.Run("provider failure leaves payment refundable", func(t *testing.T) {
		t.Parallel()

		env := newSagaEnv(t, &refundFailProvider{Provider: fastProvider()})
		receipt := charge(t, env)

		_, err := env.svc.Cancel(context.Background(), "user-1", receipt.PaymentID)
		assert.ErrorIs(t, err, payment.ErrProviderFailure)

		stored, err := env.payments.Get(context.Background(), receipt.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSucceeded, stored.Status, "no partial refund state may be recorded")
		assert.True(t, stored.RefundAmount.IsZero())
		assert.Equal(t, subscription.StatusActive, env.subscriptionStatus(t))
	})
}

func TestGetAndList(t *testing.T) {
	t.Parallel()

	env := newSagaEnv(t, fastProvider())
	receipt, err := env.svc.Process(context.Background(), "user-1", payment.ProcessParams{
		SubscriptionID: env.sub.ID,
		Amount:         decimal.NewFromFloat(50),
		Token:          "tok_valid",
	})
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), receipt.PaymentID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, receipt.PaymentID, got.PaymentID)

	_, err = env.svc.Get(context.Background(), receipt.PaymentID, "user-2")
	assert.ErrorIs(t, err, payment.ErrNotOwned)

	_, err = env.svc.Get(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, payment.ErrNotFound)

	list, err := env.svc.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	empty, err := env.svc.ListByUser(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

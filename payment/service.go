package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShivaSirikonda/smart-subscription/notification"
	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

// Service orchestrates the charge and refund sagas. A saga crosses two
// aggregates without a shared transaction: the payment record is the source
// of truth for the provider outcome, and the subscription transition is a
// compensating action applied best-effort through the Transitioner port.
// Notifications and domain events are a side channel that never affects the
// saga outcome.
type Service struct {
	store    Store
	provider Provider
	subs     subscription.Transitioner
	events   notification.Publisher
	log      *slog.Logger
	now      func() time.Time
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

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPublisher sets the notification/event publisher, default NopPublisher.
func WithPublisher(events notification.Publisher) ServiceOption {
	return func(s *Service) {
		if events != nil {
			s.events = events
		}
	}
}

// NewService creates a payment service. Panics if store, provider, or subs
// is nil to fail fast during initialization.
func NewService(store Store, provider Provider, subs subscription.Transitioner, opts ...ServiceOption) *Service {
	if store == nil {
		panic("payment: Store is required")
	}
	if provider == nil {
		panic("payment: Provider is required")
	}
	if subs == nil {
		panic("payment: subscription.Transitioner is required")
	}

	s := &Service{
		store:    store,
		provider: provider,
		subs:     subs,
		events:   notification.NopPublisher{},
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessParams carries one charge request. Token is the opaque payment
// method token forwarded to the provider.
type ProcessParams struct {
	SubscriptionID string
	Amount         decimal.Decimal
	Token          string
}

// Process runs the charge saga: persist a PENDING payment, charge the
// provider, persist the terminal status, then apply the subscription
// transition as a compensating action. The terminal payment status always
// reflects the true provider outcome; a failed compensation is logged, not
// surfaced, leaving a known inconsistency window without automatic
// reconciliation.
func (s *Service) Process(ctx context.Context, userID string, params ProcessParams) (*Receipt, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if params.Token == "" {
		return nil, ErrTokenRequired
	}

	sub, err := s.findSubscription(ctx, userID, params.SubscriptionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Payment{
		ID:             uuid.NewString(),
		UserID:         userID,
		SubscriptionID: params.SubscriptionID,
		Amount:         params.Amount,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.log.InfoContext(ctx, "processing payment",
		logger.PaymentID(p.ID),
		logger.UserID(userID),
		logger.SubscriptionID(params.SubscriptionID))

	transactionID, err := s.provider.Charge(ctx, params.Token, params.Amount)
	if err != nil {
		return nil, s.failCharge(ctx, p, sub, wrapProviderErr(err))
	}

	p.Status = StatusSucceeded
	p.TransactionID = transactionID
	p.UpdatedAt = s.now()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, s.failCharge(ctx, p, sub, fmt.Errorf("failed to record charge outcome: %w", err))
	}

	s.compensate(ctx, p, subscription.ChargeSucceeded)

	s.notify(ctx, userID, notification.TypePaymentSuccess, "Payment Successful",
		fmt.Sprintf("Your payment of $%s for %s has been processed successfully.", p.Amount.StringFixed(2), sub.PlanName),
		map[string]any{
			"paymentId":        p.ID,
			"amount":           p.Amount,
			"subscriptionId":   sub.ID,
			"subscriptionName": sub.PlanName,
		})
	s.publishEvent(ctx, userID, map[string]any{
		"eventType":      notification.TypePaymentSuccess,
		"userId":         userID,
		"paymentId":      p.ID,
		"subscriptionId": sub.ID,
		"amount":         p.Amount,
		"timestamp":      s.now().UnixMilli(),
	})

	s.log.InfoContext(ctx, "payment succeeded",
		logger.PaymentID(p.ID),
		logger.UserID(userID))
	return p.Receipt(), nil
}

// failCharge records the FAILED terminal status, compensates the
// subscription to PAUSED, and returns the cause to surface to the caller.
func (s *Service) failCharge(ctx context.Context, p *Payment, sub *subscription.Subscription, cause error) error {
	p.Status = StatusFailed
	p.UpdatedAt = s.now()
	if err := s.store.Save(ctx, p); err != nil {
		s.log.ErrorContext(ctx, "failed to record failed payment",
			logger.PaymentID(p.ID),
			logger.Error(err))
	}

	s.compensate(ctx, p, subscription.ChargeFailed)

	s.notify(ctx, p.UserID, notification.TypePaymentFailed, "Payment Failed",
		fmt.Sprintf("Your payment of $%s for %s has failed. Please try again.", p.Amount.StringFixed(2), sub.PlanName),
		map[string]any{
			"paymentId":      p.ID,
			"amount":         p.Amount,
			"subscriptionId": sub.ID,
			"error":          cause.Error(),
		})

	s.log.ErrorContext(ctx, "payment failed",
		logger.PaymentID(p.ID),
		logger.UserID(p.UserID),
		logger.SubscriptionID(p.SubscriptionID),
		logger.Error(cause))
	return cause
}

// Cancel runs the refund saga: validate the payment and its subscription,
// refund 99% of the amount through the provider, record the REFUNDED
// terminal status, then move the subscription to PENDING. A provider
// failure leaves the payment SUCCEEDED with no partial write, so the whole
// cancellation is safe to retry.
func (s *Service) Cancel(ctx context.Context, userID, paymentID string) (*Receipt, error) {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotOwned
	}
	if p.Status == StatusRefunded {
		return nil, ErrAlreadyRefunded
	}
	if !p.Refundable() {
		return nil, ErrNotRefundable
	}

	sub, err := s.findSubscription(ctx, userID, p.SubscriptionID)
	if err != nil {
		return nil, err
	}

	refundAmount := ComputeRefund(p.Amount)

	s.log.InfoContext(ctx, "processing refund",
		logger.PaymentID(p.ID),
		logger.UserID(userID),
		slog.String("refund_amount", refundAmount.StringFixed(2)))

	refundTransactionID, err := s.provider.Refund(ctx, p.TransactionID, refundAmount)
	if err != nil {
		err = wrapProviderErr(err)
		s.log.ErrorContext(ctx, "refund failed",
			logger.PaymentID(p.ID),
			logger.UserID(userID),
			logger.Error(err))
		return nil, err
	}

	p.Status = StatusRefunded
	p.RefundAmount = refundAmount
	p.RefundTransactionID = refundTransactionID
	p.UpdatedAt = s.now()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if err := s.subs.ApplyRefund(ctx, sub.ID); err != nil {
		s.log.ErrorContext(ctx, "refund compensation failed",
			logger.PaymentID(p.ID),
			logger.SubscriptionID(sub.ID),
			logger.Error(err))
	}

	s.notify(ctx, userID, notification.TypePaymentRefunded, "Refund Processed",
		fmt.Sprintf("Your refund of $%s for %s has been processed. The amount will be credited to your account within 5-7 business days.", refundAmount.StringFixed(2), sub.PlanName),
		map[string]any{
			"paymentId":      p.ID,
			"originalAmount": p.Amount,
			"refundAmount":   refundAmount,
			"subscriptionId": sub.ID,
		})
	s.publishEvent(ctx, userID, map[string]any{
		"eventType":      notification.TypePaymentRefunded,
		"userId":         userID,
		"paymentId":      p.ID,
		"subscriptionId": sub.ID,
		"refundAmount":   refundAmount,
		"timestamp":      s.now().UnixMilli(),
	})

	s.log.InfoContext(ctx, "payment refunded",
		logger.PaymentID(p.ID),
		logger.UserID(userID))
	return p.Receipt(), nil
}

// Get returns the payment projection. Payments of other users fail with
// ErrNotOwned.
func (s *Service) Get(ctx context.Context, paymentID, userID string) (*Receipt, error) {
	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotOwned
	}
	return p.Receipt(), nil
}

// ListByUser returns the user's payment history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Receipt, error) {
	payments, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	receipts := make([]*Receipt, len(payments))
	for i, p := range payments {
		receipts[i] = p.Receipt()
	}
	return receipts, nil
}

// findSubscription validates the subscription exists and belongs to the
// caller before any side effect happens.
func (s *Service) findSubscription(ctx context.Context, userID, subscriptionID string) (*subscription.Subscription, error) {
	sub, err := s.subs.Find(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrNotOwned
	}
	return sub, nil
}

// compensate applies the charge outcome to the subscription. Failure here
// is logged and swallowed: the payment record stays authoritative and the
// subscription drifts until reconciled out of band.
func (s *Service) compensate(ctx context.Context, p *Payment, outcome subscription.ChargeOutcome) {
	if err := s.subs.ApplyChargeOutcome(ctx, p.SubscriptionID, outcome); err != nil {
		s.log.ErrorContext(ctx, "charge compensation failed",
			logger.PaymentID(p.ID),
			logger.SubscriptionID(p.SubscriptionID),
			slog.String("outcome", string(outcome)),
			logger.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, userID, typ, title, message string, data map[string]any) {
	payload := notification.NewMessage(userID, typ, title, message, data)
	if err := s.events.Publish(ctx, notification.ChannelNotifications, userID, payload); err != nil {
		s.log.ErrorContext(ctx, "failed to publish notification",
			logger.UserID(userID),
			logger.EventType(typ),
			logger.Error(err))
	}
}

func (s *Service) publishEvent(ctx context.Context, userID string, event map[string]any) {
	if err := s.events.Publish(ctx, notification.ChannelPaymentEvents, userID, event); err != nil {
		s.log.ErrorContext(ctx, "failed to publish payment event",
			logger.UserID(userID),
			logger.Error(err))
	}
}

package notification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

// Consumer handles messages from the notifications channel: it persists an
// inbox record, emails the user, and escalates critical types (anything
// containing FAILED or EXPIRED) to SMS. Every step is best-effort; a
// delivery failure is logged and never aborts the rest of the processing.
type Consumer struct {
	store Store
	email EmailSender
	sms   SMSSender
	log   *slog.Logger
	now   func() time.Time
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the consumer logger. Nil loggers are ignored.
func WithConsumerLogger(log *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if log != nil {
			c.log = log
		}
	}
}

// WithConsumerClock overrides the time source for tests.
func WithConsumerClock(now func() time.Time) ConsumerOption {
	return func(c *Consumer) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConsumer creates a notification consumer. Panics if any dependency is nil.
func NewConsumer(store Store, email EmailSender, sms SMSSender, opts ...ConsumerOption) *Consumer {
	if store == nil {
		panic("notification: Store is required")
	}
	if email == nil {
		panic("notification: EmailSender is required")
	}
	if sms == nil {
		panic("notification: SMSSender is required")
	}

	c := &Consumer{
		store: store,
		email: email,
		sms:   sms,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process handles one notifications-channel payload.
func (c *Consumer) Process(ctx context.Context, payload map[string]any) {
	userID, _ := payload["userId"].(string)
	typ, _ := payload["type"].(string)
	title, _ := payload["title"].(string)
	message, _ := payload["message"].(string)

	if userID == "" || typ == "" {
		c.log.WarnContext(ctx, "skipping notification without userId or type")
		return
	}

	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: c.now(),
	}
	if err := c.store.Save(ctx, n); err != nil {
		c.log.ErrorContext(ctx, "failed to save notification",
			logger.UserID(userID),
			logger.EventType(typ),
			logger.Error(err))
	} else {
		c.log.InfoContext(ctx, "notification saved",
			logger.UserID(userID),
			logger.EventType(typ))
	}

	if err := c.email.SendEmail(ctx, userID, title, message); err != nil {
		c.log.ErrorContext(ctx, "failed to send email",
			logger.UserID(userID),
			logger.Error(err))
	}

	if strings.Contains(typ, "FAILED") || strings.Contains(typ, "EXPIRED") {
		if err := c.sms.SendSMS(ctx, userID, message); err != nil {
			c.log.ErrorContext(ctx, "failed to send sms",
				logger.UserID(userID),
				logger.Error(err))
		}
	}
}

package notification

import (
	"context"
	"log/slog"
)

// SMSSender delivers a short message for critical notifications.
type SMSSender interface {
	SendSMS(ctx context.Context, userID, message string) error
}

// DevSMSSender logs SMS messages instead of sending them.
type DevSMSSender struct {
	log *slog.Logger
}

// NewDevSMSSender creates a development SMS sender that only logs.
func NewDevSMSSender(log *slog.Logger) *DevSMSSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevSMSSender{log: log}
}

func (s *DevSMSSender) SendSMS(ctx context.Context, userID, message string) error {
	s.log.InfoContext(ctx, "sms (dev)",
		slog.String("user_id", userID),
		slog.String("message", message))
	return nil
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"github.com/mrz1836/postmark"
)

// EmailSender delivers a notification by email. The recipient address is
// resolved by the implementation from the user identifier.
type EmailSender interface {
	SendEmail(ctx context.Context, userID, subject, body string) error
}

// ErrEmailFailed wraps provider errors from email delivery.
var ErrEmailFailed = errors.New("failed to send email")

// EmailConfig holds postmark credentials and sender identity.
type EmailConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"EMAIL_SENDER" envDefault:"billing@smart-subscription.app"`
}

// AddressResolver maps a user identifier to an email address.
type AddressResolver func(ctx context.Context, userID string) (string, error)

// PostmarkSender sends notification emails through Postmark.
type PostmarkSender struct {
	client  *postmark.Client
	sender  string
	resolve AddressResolver
}

// NewPostmarkSender creates a Postmark-backed sender. The resolver is
// required because notification payloads carry user IDs, not addresses.
func NewPostmarkSender(cfg EmailConfig, resolve AddressResolver) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrEmailFailed)
	}
	if resolve == nil {
		return nil, fmt.Errorf("%w: address resolver is required", ErrEmailFailed)
	}

	return &PostmarkSender{
		client:  postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		sender:  cfg.SenderEmail,
		resolve: resolve,
	}, nil
}

func (s *PostmarkSender) SendEmail(ctx context.Context, userID, subject, body string) error {
	to, err := s.resolve(ctx, userID)
	if err != nil {
		return errors.Join(ErrEmailFailed, err)
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.sender,
		To:       to,
		Subject:  subject,
		HTMLBody: "<p>" + html.EscapeString(body) + "</p>",
		TextBody: body,
	})
	if err != nil {
		return errors.Join(ErrEmailFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrEmailFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// DevEmailSender logs emails instead of sending them.
type DevEmailSender struct {
	log *slog.Logger
}

// NewDevEmailSender creates a development email sender that only logs.
func NewDevEmailSender(log *slog.Logger) *DevEmailSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevEmailSender{log: log}
}

func (s *DevEmailSender) SendEmail(ctx context.Context, userID, subject, body string) error {
	s.log.InfoContext(ctx, "email (dev)",
		slog.String("user_id", userID),
		slog.String("subject", subject),
		slog.String("body", body))
	return nil
}

package notification

import "time"

// Logical channels notifications and domain events are published on. The
// names are part of the wire contract shared with downstream consumers.
const (
	ChannelNotifications = "notifications"
	ChannelPaymentEvents = "payment-events"
)

// Well-known notification and event types. SMS escalation keys off the
// FAILED/EXPIRED substrings, so renamed types must keep them.
const (
	TypePaymentSuccess        = "PAYMENT_SUCCESS"
	TypePaymentFailed         = "PAYMENT_FAILED"
	TypePaymentRefunded       = "PAYMENT_REFUNDED"
	TypeSubscriptionActivated = "SUBSCRIPTION_ACTIVATED"
	TypeSubscriptionExpiring  = "SUBSCRIPTION_EXPIRING"
	TypeSubscriptionExpired   = "SUBSCRIPTION_EXPIRED"
	TypeSystemAlert           = "SYSTEM_ALERT"
)

// Notification is an inbox record persisted when a message arrives on the
// notifications channel.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Message is the payload shape carried on the notifications channel.
type Message struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	UserID    string         `json:"userId"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewMessage builds a notification payload for Publisher.Publish.
func NewMessage(userID, typ, title, message string, data map[string]any) map[string]any {
	payload := map[string]any{
		"type":      typ,
		"title":     title,
		"message":   message,
		"userId":    userID,
		"timestamp": time.Now().UnixMilli(),
	}
	if data != nil {
		payload["data"] = data
	}
	return payload
}

package notification

import "context"

// Store is the inbox persistence port.
type Store interface {
	// Save persists an inbox record.
	Save(ctx context.Context, n *Notification) error

	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Notification, error)

	// ListUnread returns the user's unread notifications, newest first.
	ListUnread(ctx context.Context, userID string) ([]*Notification, error)

	// CountUnread returns the number of unread notifications for the user.
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead marks one notification read. Returns ErrNotFound when the
	// record does not exist or belongs to another user.
	MarkRead(ctx context.Context, id, userID string) error

	// MarkAllRead marks every unread notification of the user read.
	MarkAllRead(ctx context.Context, userID string) error
}

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the notification inbox in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates an inbox store backed by the given pool.
// Panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("notification: pgx pool is required")
	}
	return &PostgresStore{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

const notificationColumns = `id, user_id, type, title, message, read, created_at, read_at`

func (p *PostgresStore) Save(ctx context.Context, n *Notification) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, read, created_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt, n.ReadAt)
	if err != nil {
		return fmt.Errorf("save notification %s: %w", n.ID, err)
	}
	return nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Notification, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (p *PostgresStore) ListUnread(ctx context.Context, userID string) ([]*Notification, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = $1 AND NOT read ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list unread notifications for user %s: %w", userID, err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (p *PostgresStore) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications for user %s: %w", userID, err)
	}
	return count, nil
}

func (p *PostgresStore) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE, read_at = $3
		 WHERE id = $1 AND user_id = $2`, id, userID, p.now())
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE, read_at = $2
		 WHERE user_id = $1 AND NOT read`, userID, p.now())
	if err != nil {
		return fmt.Errorf("mark all notifications read for user %s: %w", userID, err)
	}
	return nil
}

func scanNotifications(rows pgx.Rows) ([]*Notification, error) {
	var out []*Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt, &n.ReadAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

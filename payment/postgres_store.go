package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists payments in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a payment store backed by the given pool.
// Panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("payment: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const paymentColumns = `id, user_id, subscription_id, amount::text, status, transaction_id,
	refund_amount::text, refund_transaction_id, created_at, updated_at`

func (p *PostgresStore) Get(ctx context.Context, id string) (*Payment, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (p *PostgresStore) Save(ctx context.Context, pay *Payment) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO payments (
			id, user_id, subscription_id, amount, status, transaction_id,
			refund_amount, refund_transaction_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			transaction_id = EXCLUDED.transaction_id,
			refund_amount = EXCLUDED.refund_amount,
			refund_transaction_id = EXCLUDED.refund_transaction_id,
			updated_at = EXCLUDED.updated_at`,
		pay.ID, pay.UserID, pay.SubscriptionID, pay.Amount.String(), pay.Status, pay.TransactionID,
		pay.RefundAmount.String(), pay.RefundTransactionID, pay.CreatedAt, pay.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save payment %s: %w", pay.ID, err)
	}
	return nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Payment, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list payments for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		pay, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		pay          Payment
		amount       string
		refundAmount string
	)
	err := row.Scan(
		&pay.ID, &pay.UserID, &pay.SubscriptionID, &amount, &pay.Status, &pay.TransactionID,
		&refundAmount, &pay.RefundTransactionID, &pay.CreatedAt, &pay.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	if pay.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse payment amount %q: %w", amount, err)
	}
	if pay.RefundAmount, err = decimal.NewFromString(refundAmount); err != nil {
		return nil, fmt.Errorf("parse refund amount %q: %w", refundAmount, err)
	}
	return &pay, nil
}

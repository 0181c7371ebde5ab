package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists subscriptions and plans in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
// Panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, plan_name, status, start_date, end_date,
	next_billing_date, trial_end_date, price::text, currency, billing_cycle,
	trial_days, auto_renew, cancellation_reason, created_at, updated_at`

func (p *PostgresStore) Get(ctx context.Context, id string) (*Subscription, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

func (p *PostgresStore) Save(ctx context.Context, s *Subscription) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO subscriptions (
			id, user_id, plan_id, plan_name, status, start_date, end_date,
			next_billing_date, trial_end_date, price, currency, billing_cycle,
			trial_days, auto_renew, cancellation_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			plan_name = EXCLUDED.plan_name,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			next_billing_date = EXCLUDED.next_billing_date,
			trial_end_date = EXCLUDED.trial_end_date,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			billing_cycle = EXCLUDED.billing_cycle,
			trial_days = EXCLUDED.trial_days,
			auto_renew = EXCLUDED.auto_renew,
			cancellation_reason = EXCLUDED.cancellation_reason,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.UserID, s.PlanID, s.PlanName, s.Status, s.StartDate, s.EndDate,
		s.NextBillingDate, s.TrialEndDate, s.Price.String(), s.Currency, s.BillingCycle,
		s.TrialDays, s.AutoRenew, s.CancellationReason, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save subscription %s: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Subscription, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for user %s: %w", userID, err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *PostgresStore) FindByUserAndStatus(ctx context.Context, userID string, status Status) (*Subscription, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`,
		userID, status)
	return scanSubscription(row)
}

func (p *PostgresStore) ExistsActive(ctx context.Context, userID, planID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND plan_id = $2 AND status = $3
		)`, userID, planID, StatusActive).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active subscription: %w", err)
	}
	return exists, nil
}

func (p *PostgresStore) DueForRenewal(ctx context.Context, now time.Time) ([]*Subscription, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status = $1 AND next_billing_date IS NOT NULL AND next_billing_date < $2
		 ORDER BY next_billing_date`,
		StatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions due for renewal: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *PostgresStore) TrialsEnding(ctx context.Context, now time.Time) ([]*Subscription, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status = $1 AND trial_end_date IS NOT NULL AND trial_end_date < $2
		 ORDER BY trial_end_date`,
		StatusTrial, now)
	if err != nil {
		return nil, fmt.Errorf("list ending trials: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows pgx.Rows) ([]*Subscription, error) {
	var out []*Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var (
		s     Subscription
		price string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanID, &s.PlanName, &s.Status, &s.StartDate, &s.EndDate,
		&s.NextBillingDate, &s.TrialEndDate, &price, &s.Currency, &s.BillingCycle,
		&s.TrialDays, &s.AutoRenew, &s.CancellationReason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	s.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse subscription price %q: %w", price, err)
	}
	return &s, nil
}

// PostgresPlanStore persists the plan catalog in PostgreSQL.
type PostgresPlanStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPlanStore creates a plan store backed by the given pool.
// Panics if pool is nil.
func NewPostgresPlanStore(pool *pgxpool.Pool) *PostgresPlanStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresPlanStore{pool: pool}
}

const planColumns = `id, code, name, description, price::text, currency, billing_cycle,
	trial_days, is_active, max_users, max_projects, storage_limit, api_rate_limit,
	sort_order, created_at`

func (p *PostgresPlanStore) Get(ctx context.Context, id string) (*Plan, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (p *PostgresPlanStore) GetByCode(ctx context.Context, code string) (*Plan, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE code = $1`, code)
	return scanPlan(row)
}

func (p *PostgresPlanStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscription_plans WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check plan code %s: %w", code, err)
	}
	return exists, nil
}

func (p *PostgresPlanStore) List(ctx context.Context) ([]*Plan, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+planColumns+` FROM subscription_plans ORDER BY sort_order, code`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

func (p *PostgresPlanStore) ListActive(ctx context.Context) ([]*Plan, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE is_active ORDER BY sort_order, code`)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

func (p *PostgresPlanStore) Save(ctx context.Context, plan *Plan) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO subscription_plans (
			id, code, name, description, price, currency, billing_cycle,
			trial_days, is_active, max_users, max_projects, storage_limit,
			api_rate_limit, sort_order, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			billing_cycle = EXCLUDED.billing_cycle,
			trial_days = EXCLUDED.trial_days,
			is_active = EXCLUDED.is_active,
			max_users = EXCLUDED.max_users,
			max_projects = EXCLUDED.max_projects,
			storage_limit = EXCLUDED.storage_limit,
			api_rate_limit = EXCLUDED.api_rate_limit,
			sort_order = EXCLUDED.sort_order`,
		plan.ID, plan.Code, plan.Name, plan.Description, plan.Price.String(), plan.Currency,
		plan.BillingCycle, plan.TrialDays, plan.IsActive, plan.Limits.MaxUsers,
		plan.Limits.MaxProjects, plan.Limits.StorageLimit, plan.Limits.APIRateLimit,
		plan.SortOrder, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	return nil
}

func (p *PostgresPlanStore) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func scanPlans(rows pgx.Rows) ([]*Plan, error) {
	var out []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var (
		p     Plan
		price string
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &price, &p.Currency, &p.BillingCycle,
		&p.TrialDays, &p.IsActive, &p.Limits.MaxUsers, &p.Limits.MaxProjects,
		&p.Limits.StorageLimit, &p.Limits.APIRateLimit, &p.SortOrder, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse plan price %q: %w", price, err)
	}
	return &p, nil
}

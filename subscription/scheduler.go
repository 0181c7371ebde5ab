package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

// Scheduler periodically scans for subscriptions whose billing period or
// trial window has elapsed and applies the renewal/expiry decisions.
//
// Scans process each subscription independently: a store failure on one is
// logged and the scan moves on to the next. There is no cross-instance
// coordination; run a single scheduler instance, or add per-item locking
// before scaling it horizontally.
type Scheduler struct {
	store    Store
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler logger. Nil loggers are ignored.
func WithSchedulerLogger(log *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSchedulerInterval overrides the scan cadence. Non-positive values are ignored.
func WithSchedulerInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSchedulerClock overrides the time source for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates a renewal scheduler with a daily default cadence.
// Exact timing is not a correctness property; both scans only touch
// subscriptions that are already due.
func NewScheduler(store Store, opts ...SchedulerOption) *Scheduler {
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &Scheduler{
		store:    store,
		log:      slog.Default(),
		interval: 24 * time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the scheduler loop until the context is cancelled. The first
// scan runs after one interval elapses.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "renewal scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "renewal scheduler stopped")
			return
		case <-ticker.C:
			s.RunRenewals(ctx)
			s.RunTrialExpiries(ctx)
		}
	}
}

// RunRenewals processes all ACTIVE subscriptions whose next billing date has
// passed: auto-renewing ones get a fresh billing window, the rest expire.
func (s *Scheduler) RunRenewals(ctx context.Context) {
	now := s.now()
	due, err := s.store.DueForRenewal(ctx, now)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list subscriptions due for renewal", logger.Error(err))
		return
	}

	s.log.InfoContext(ctx, "processing subscription renewals", slog.Int("due", len(due)))

	for _, sub := range due {
		Renew(sub, now)
		sub.UpdatedAt = now

		if err := s.store.Save(ctx, sub); err != nil {
			s.log.ErrorContext(ctx, "failed to process renewal",
				logger.SubscriptionID(sub.ID),
				logger.UserID(sub.UserID),
				logger.Error(err))
			continue
		}

		if sub.Status == StatusExpired {
			s.log.InfoContext(ctx, "expired subscription",
				logger.SubscriptionID(sub.ID),
				logger.UserID(sub.UserID))
		} else {
			s.log.InfoContext(ctx, "renewed subscription",
				logger.SubscriptionID(sub.ID),
				logger.UserID(sub.UserID))
		}
	}
}

// RunTrialExpiries processes all TRIAL subscriptions whose trial end date has
// passed. Trials always expire; there is no automatic conversion to a charge.
func (s *Scheduler) RunTrialExpiries(ctx context.Context) {
	now := s.now()
	ending, err := s.store.TrialsEnding(ctx, now)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list ending trials", logger.Error(err))
		return
	}

	s.log.InfoContext(ctx, "processing trial endings", slog.Int("ending", len(ending)))

	for _, sub := range ending {
		ExpireTrial(sub)
		sub.UpdatedAt = now

		if err := s.store.Save(ctx, sub); err != nil {
			s.log.ErrorContext(ctx, "failed to process trial ending",
				logger.SubscriptionID(sub.ID),
				logger.UserID(sub.UserID),
				logger.Error(err))
			continue
		}

		s.log.InfoContext(ctx, "trial ended",
			logger.SubscriptionID(sub.ID),
			logger.UserID(sub.UserID))
	}
}

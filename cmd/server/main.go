package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShivaSirikonda/smart-subscription/api"
	"github.com/ShivaSirikonda/smart-subscription/notification"
	"github.com/ShivaSirikonda/smart-subscription/payment"
	"github.com/ShivaSirikonda/smart-subscription/pkg/config"
	"github.com/ShivaSirikonda/smart-subscription/pkg/httpserver"
	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
	"github.com/ShivaSirikonda/smart-subscription/pkg/pg"
	redisconn "github.com/ShivaSirikonda/smart-subscription/pkg/redis"
	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

type appConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	ServiceName   string `env:"APP_NAME" envDefault:"smart-subscription"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	// Optional backends. Unset means in-memory stores and in-process
	// notification delivery, which is enough for local development.
	DatabaseURL  string `env:"PG_CONN_URL"`
	RedisURL     string `env:"REDIS_URL"`
	PaddleAPIKey string `env:"PADDLE_API_KEY"`

	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1h"`
	SeedPlans         bool          `env:"SEED_PLANS" envDefault:"true"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.ServiceName))
	logger.SetAsDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jwtSvc, err := jwt.NewFromString(cfg.JWTSigningKey)
	if err != nil {
		return err
	}

	// Storage.
	var (
		payStore     payment.Store
		subStore     subscription.Store
		planStore    subscription.PlanStore
		inbox        notification.Store
		healthchecks []func(context.Context) error
	)
	if cfg.DatabaseURL != "" {
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}
		payStore = payment.NewPostgresStore(pool)
		subStore = subscription.NewPostgresStore(pool)
		planStore = subscription.NewPostgresPlanStore(pool)
		inbox = notification.NewPostgresStore(pool)
		healthchecks = append(healthchecks, pg.Healthcheck(pool))
	} else {
		log.Warn("PG_CONN_URL not set, using in-memory stores")
		mem := subscription.NewMemoryStore()
		subStore = mem
		planStore = mem.Plans()
		payStore = payment.NewMemoryStore()
		inbox = notification.NewMemoryStore()
	}

	// Notification pipeline: the saga publishes through a bounded
	// fire-and-forget dispatcher; the consumer fans deliveries out to the
	// inbox, email and SMS.
	consumer := notification.NewConsumer(inbox,
		notification.NewDevEmailSender(log),
		notification.NewDevSMSSender(log),
		notification.WithConsumerLogger(log))

	var publisher notification.Publisher
	if cfg.RedisURL != "" {
		var redisCfg redisconn.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redisconn.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		publisher = notification.NewRedisPublisher(client)
		healthchecks = append(healthchecks, redisconn.Healthcheck(client))
		reader := notification.NewStreamReader(client, consumer,
			notification.WithReaderLogger(log))
		go func() {
			if err := reader.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("notification stream reader stopped", logger.Error(err))
			}
		}()
	} else {
		log.Warn("REDIS_URL not set, delivering notifications in-process")
		publisher = &inProcessPublisher{consumer: consumer, log: log}
	}

	dispatcher := notification.NewDispatcher(publisher,
		notification.WithDispatcherLogger(log))
	defer dispatcher.Close()

	// Payment provider.
	var provider payment.Provider
	if cfg.PaddleAPIKey != "" {
		var paddleCfg payment.PaddleConfig
		if err := config.Load(&paddleCfg); err != nil {
			return err
		}
		provider, err = payment.NewPaddleProvider(paddleCfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn("PADDLE_API_KEY not set, using the simulated payment provider")
		provider = payment.NewSimulatedProvider()
	}
	provider = payment.NewTimeoutProvider(provider, payment.DefaultProviderTimeout)

	// Domain services.
	subSvc := subscription.NewService(subStore, planStore, subscription.WithLogger(log))
	planSvc := subscription.NewPlanService(planStore, subscription.WithPlanLogger(log))
	paySvc := payment.NewService(payStore, provider,
		subscription.NewStoreTransitioner(subStore),
		payment.WithLogger(log),
		payment.WithPublisher(dispatcher))

	if cfg.SeedPlans {
		if err := seedPlans(ctx, planSvc, planStore, log); err != nil {
			return err
		}
	}

	scheduler := subscription.NewScheduler(subStore,
		subscription.WithSchedulerLogger(log),
		subscription.WithSchedulerInterval(cfg.SchedulerInterval))
	go scheduler.Start(ctx)

	router := api.NewRouter(api.RouterConfig{
		JWT:           jwtSvc,
		Log:           log,
		Payments:      api.NewPaymentHandler(paySvc, log),
		Subscriptions: api.NewSubscriptionHandler(subSvc, log),
		Plans:         api.NewPlanHandler(planSvc, log),
		Notifications: api.NewNotificationHandler(inbox, log),
		Healthchecks:  healthchecks,
	})

	var srvCfg httpserver.Config
	if err := config.Load(&srvCfg); err != nil {
		return err
	}
	return httpserver.New(srvCfg, log).Run(ctx, router)
}

// inProcessPublisher routes notification messages straight to the consumer
// when no broker is configured. Payment events have no in-process subscriber
// and are only logged.
type inProcessPublisher struct {
	consumer *notification.Consumer
	log      *slog.Logger
}

func (p *inProcessPublisher) Publish(ctx context.Context, channel, key string, payload map[string]any) error {
	if channel == notification.ChannelNotifications {
		p.consumer.Process(ctx, payload)
		return nil
	}
	p.log.Info("payment event",
		logger.Channel(channel),
		slog.String("key", key),
		slog.Any("payload", payload))
	return nil
}

// seedPlans installs a default catalog on first boot so a fresh install has
// something to subscribe to. Existing catalogs are left untouched.
func seedPlans(ctx context.Context, svc *subscription.PlanService, store subscription.PlanStore, log *slog.Logger) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []*subscription.Plan{
		{
			Code:         "BASIC",
			Name:         "Basic",
			Description:  "For individuals getting started",
			Price:        decimal.RequireFromString("9.99"),
			BillingCycle: subscription.CycleMonthly,
			IsActive:     true,
			Limits:       subscription.PlanLimits{MaxUsers: 1, MaxProjects: 3, StorageLimit: 1 << 30, APIRateLimit: 1000},
			SortOrder:    1,
		},
		{
			Code:         "PRO",
			Name:         "Pro",
			Description:  "For small teams",
			Price:        decimal.RequireFromString("29.99"),
			BillingCycle: subscription.CycleMonthly,
			TrialDays:    14,
			IsActive:     true,
			Limits:       subscription.PlanLimits{MaxUsers: 10, MaxProjects: 50, StorageLimit: 50 << 30, APIRateLimit: 10000},
			SortOrder:    2,
		},
		{
			Code:         "ENTERPRISE",
			Name:         "Enterprise",
			Description:  "For organizations, billed yearly",
			Price:        decimal.RequireFromString("2999.00"),
			BillingCycle: subscription.CycleYearly,
			IsActive:     true,
			Limits:       subscription.PlanLimits{MaxUsers: 500, MaxProjects: 1000, StorageLimit: 1 << 40, APIRateLimit: 100000},
			SortOrder:    3,
		},
	}
	for _, plan := range defaults {
		if _, err := svc.Create(ctx, plan); err != nil {
			return err
		}
	}
	log.Info("seeded default plan catalog", slog.Int("plans", len(defaults)))
	return nil
}

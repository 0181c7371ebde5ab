package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

// RouterConfig collects the handlers mounted under /api. Nil handlers are
// skipped so partial deployments (payments only, say) stay possible.
type RouterConfig struct {
	JWT           *jwt.Service
	Log           *slog.Logger
	Payments      *PaymentHandler
	Subscriptions *SubscriptionHandler
	Plans         *PlanHandler
	Notifications *NotificationHandler
	// AdminGuard authorizes administrative plan management. When nil the
	// admin routes are not mounted at all.
	AdminGuard func(http.Handler) http.Handler
	// Healthchecks are probed by /healthz; any failure makes the endpoint
	// report 503. Empty means the process itself is the only signal.
	Healthchecks []func(context.Context) error
}

// NewRouter builds the HTTP surface: public plan listing, and the
// authenticated payment/subscription/notification endpoints behind the
// bearer-token middleware.
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.JWT == nil {
		panic("api: jwt.Service is required")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		for _, check := range cfg.Healthchecks {
			if err := check(req.Context()); err != nil {
				if cfg.Log != nil {
					cfg.Log.ErrorContext(req.Context(), "healthcheck failed", logger.Error(err))
				}
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Plans != nil {
			api.Group(cfg.Plans.Routes)
		}

		api.Group(func(authed chi.Router) {
			authed.Use(jwt.Middleware(cfg.JWT))

			if cfg.Payments != nil {
				authed.Group(cfg.Payments.Routes)
			}
			if cfg.Subscriptions != nil {
				authed.Group(cfg.Subscriptions.Routes)
			}
			if cfg.Notifications != nil {
				authed.Group(cfg.Notifications.Routes)
			}
			if cfg.Plans != nil && cfg.AdminGuard != nil {
				authed.Route("/admin", func(admin chi.Router) {
					admin.Use(cfg.AdminGuard)
					cfg.Plans.AdminRoutes(admin)
				})
			}
		})
	})

	return r
}

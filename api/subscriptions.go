package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

// SubscriptionHandler exposes the subscription lifecycle over HTTP.
type SubscriptionHandler struct {
	svc *subscription.Service
	log *slog.Logger
}

// NewSubscriptionHandler creates a subscription handler. Panics on a nil service.
func NewSubscriptionHandler(svc *subscription.Service, log *slog.Logger) *SubscriptionHandler {
	if svc == nil {
		panic("api: subscription.Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &SubscriptionHandler{svc: svc, log: log}
}

// Routes mounts the subscription endpoints on the router.
func (h *SubscriptionHandler) Routes(r chi.Router) {
	r.Post("/subscriptions", h.subscribe)
	r.Get("/subscriptions", h.list)
	r.Get("/subscriptions/active", h.active)
	r.Get("/subscriptions/{subscriptionID}", h.get)
	r.Patch("/subscriptions/{subscriptionID}", h.update)
	r.Post("/subscriptions/{subscriptionID}/cancel", h.cancel)
	r.Post("/subscriptions/{subscriptionID}/pause", h.pause)
	r.Post("/subscriptions/{subscriptionID}/resume", h.resume)
}

// subscriptionView is the public projection of a subscription.
type subscriptionView struct {
	ID                 string          `json:"id"`
	PlanID             string          `json:"planId"`
	PlanName           string          `json:"planName"`
	Status             string          `json:"status"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	NextBillingDate    *time.Time      `json:"nextBillingDate,omitempty"`
	TrialEndDate       *time.Time      `json:"trialEndDate,omitempty"`
	Price              decimal.Decimal `json:"price"`
	Currency           string          `json:"currency"`
	BillingCycle       string          `json:"billingCycle"`
	TrialDays          int             `json:"trialDays"`
	AutoRenew          bool            `json:"autoRenew"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func viewOf(s *subscription.Subscription) subscriptionView {
	return subscriptionView{
		ID:                 s.ID,
		PlanID:             s.PlanID,
		PlanName:           s.PlanName,
		Status:             string(s.Status),
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		NextBillingDate:    s.NextBillingDate,
		TrialEndDate:       s.TrialEndDate,
		Price:              s.Price,
		Currency:           s.Currency,
		BillingCycle:       string(s.BillingCycle),
		TrialDays:          s.TrialDays,
		AutoRenew:          s.AutoRenew,
		CancellationReason: s.CancellationReason,
		CreatedAt:          s.CreatedAt,
	}
}

func viewsOf(subs []*subscription.Subscription) []subscriptionView {
	views := make([]subscriptionView, len(subs))
	for i, s := range subs {
		views[i] = viewOf(s)
	}
	return views
}

type subscribeRequest struct {
	PlanID    string `json:"planId"`
	TrialDays *int   `json:"trialDays,omitempty"`
	AutoRenew *bool  `json:"autoRenew,omitempty"`
}

func (h *SubscriptionHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	var req subscribeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	sub, err := h.svc.Subscribe(r.Context(), userID, subscription.SubscribeParams{
		PlanID:    req.PlanID,
		TrialDays: req.TrialDays,
		AutoRenew: req.AutoRenew,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewOf(sub))
}

func (h *SubscriptionHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	subs, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewsOf(subs))
}

func (h *SubscriptionHandler) active(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	sub, err := h.svc.ActiveFor(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sub))
}

func (h *SubscriptionHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	sub, err := h.svc.Get(r.Context(), chi.URLParam(r, "subscriptionID"), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sub))
}

type updateSubscriptionRequest struct {
	AutoRenew *bool   `json:"autoRenew,omitempty"`
	PlanID    *string `json:"planId,omitempty"`
}

func (h *SubscriptionHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	var req updateSubscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	sub, err := h.svc.Update(r.Context(), chi.URLParam(r, "subscriptionID"), userID, subscription.UpdateParams{
		AutoRenew: req.AutoRenew,
		PlanID:    req.PlanID,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sub))
}

type cancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

func (h *SubscriptionHandler) cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	var req cancelSubscriptionRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, r, h.log, err)
			return
		}
	}

	sub, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "subscriptionID"), userID, req.Reason)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sub))
}

func (h *SubscriptionHandler) pause(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	sub, err := h.svc.Pause(r.Context(), chi.URLParam(r, "subscriptionID"), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sub))
}

func (h *SubscriptionHandler) resume(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	sub, err := h.svc.Resume(r.Context(), chi.URLParam(r, "subscriptionID"), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sub))
}

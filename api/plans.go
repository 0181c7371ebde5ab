package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

// PlanHandler exposes the plan catalog: public listing for subscribers and
// CRUD for administrators. Admin routes are expected to be mounted behind an
// extra authorization layer by the caller.
type PlanHandler struct {
	svc *subscription.PlanService
	log *slog.Logger
}

// NewPlanHandler creates a plan handler. Panics on a nil service.
func NewPlanHandler(svc *subscription.PlanService, log *slog.Logger) *PlanHandler {
	if svc == nil {
		panic("api: subscription.PlanService is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PlanHandler{svc: svc, log: log}
}

// Routes mounts the public plan endpoints on the router.
func (h *PlanHandler) Routes(r chi.Router) {
	r.Get("/plans", h.listActive)
	r.Get("/plans/{code}", h.getByCode)
}

// AdminRoutes mounts the administrative plan endpoints on the router.
func (h *PlanHandler) AdminRoutes(r chi.Router) {
	r.Get("/plans", h.listAll)
	r.Post("/plans", h.create)
	r.Patch("/plans/{planID}", h.update)
	r.Delete("/plans/{planID}", h.delete)
	r.Post("/plans/{planID}/toggle", h.toggle)
}

type planView struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billingCycle"`
	TrialDays    int             `json:"trialDays"`
	IsActive     bool            `json:"isActive"`
	MaxUsers     int             `json:"maxUsers"`
	MaxProjects  int             `json:"maxProjects"`
	StorageLimit int64           `json:"storageLimit"`
	APIRateLimit int             `json:"apiRateLimit"`
	SortOrder    int             `json:"sortOrder"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func planViewOf(p *subscription.Plan) planView {
	return planView{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		BillingCycle: string(p.BillingCycle),
		TrialDays:    p.TrialDays,
		IsActive:     p.IsActive,
		MaxUsers:     p.Limits.MaxUsers,
		MaxProjects:  p.Limits.MaxProjects,
		StorageLimit: p.Limits.StorageLimit,
		APIRateLimit: p.Limits.APIRateLimit,
		SortOrder:    p.SortOrder,
		CreatedAt:    p.CreatedAt,
	}
}

func planViewsOf(plans []*subscription.Plan) []planView {
	views := make([]planView, len(plans))
	for i, p := range plans {
		views[i] = planViewOf(p)
	}
	return views
}

func (h *PlanHandler) listActive(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListActive(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, planViewsOf(plans))
}

func (h *PlanHandler) getByCode(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, planViewOf(plan))
}

func (h *PlanHandler) listAll(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, planViewsOf(plans))
}

type planRequest struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billingCycle"`
	TrialDays    int             `json:"trialDays"`
	IsActive     bool            `json:"isActive"`
	MaxUsers     int             `json:"maxUsers"`
	MaxProjects  int             `json:"maxProjects"`
	StorageLimit int64           `json:"storageLimit"`
	APIRateLimit int             `json:"apiRateLimit"`
	SortOrder    int             `json:"sortOrder"`
}

func (h *PlanHandler) create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	plan, err := h.svc.Create(r.Context(), &subscription.Plan{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		BillingCycle: subscription.BillingCycle(req.BillingCycle),
		TrialDays:    req.TrialDays,
		IsActive:     req.IsActive,
		Limits: subscription.PlanLimits{
			MaxUsers:     req.MaxUsers,
			MaxProjects:  req.MaxProjects,
			StorageLimit: req.StorageLimit,
			APIRateLimit: req.APIRateLimit,
		},
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, planViewOf(plan))
}

type planUpdateRequest struct {
	Code         *string          `json:"code,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	BillingCycle *string          `json:"billingCycle,omitempty"`
	TrialDays    *int             `json:"trialDays,omitempty"`
	IsActive     *bool            `json:"isActive,omitempty"`
	SortOrder    *int             `json:"sortOrder,omitempty"`
}

func (h *PlanHandler) update(w http.ResponseWriter, r *http.Request) {
	var req planUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	update := subscription.PlanUpdate{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		TrialDays:   req.TrialDays,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
	}
	if req.BillingCycle != nil {
		cycle := subscription.BillingCycle(*req.BillingCycle)
		update.BillingCycle = &cycle
	}

	plan, err := h.svc.Update(r.Context(), chi.URLParam(r, "planID"), update)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, planViewOf(plan))
}

func (h *PlanHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "planID")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanHandler) toggle(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.ToggleActive(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, planViewOf(plan))
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ShivaSirikonda/smart-subscription/payment"
	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
)

// PaymentHandler exposes the charge and refund sagas over HTTP.
type PaymentHandler struct {
	svc *payment.Service
	log *slog.Logger
}

// NewPaymentHandler creates a payment handler. Panics on a nil service.
func NewPaymentHandler(svc *payment.Service, log *slog.Logger) *PaymentHandler {
	if svc == nil {
		panic("api: payment.Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PaymentHandler{svc: svc, log: log}
}

// Routes mounts the payment endpoints on the router.
func (h *PaymentHandler) Routes(r chi.Router) {
	r.Post("/payments/process", h.process)
	r.Post("/payments/{paymentID}/cancel", h.cancel)
	r.Get("/payments/user", h.listByUser)
	r.Get("/payments/{paymentID}", h.get)
}

type processPaymentRequest struct {
	SubscriptionID string          `json:"subscriptionId"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentToken   string          `json:"paymentMethodToken"`
}

func (h *PaymentHandler) process(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	var req processPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	receipt, err := h.svc.Process(r.Context(), userID, payment.ProcessParams{
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Token:          req.PaymentToken,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

func (h *PaymentHandler) cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	receipt, err := h.svc.Cancel(r.Context(), userID, chi.URLParam(r, "paymentID"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

func (h *PaymentHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	receipt, err := h.svc.Get(r.Context(), chi.URLParam(r, "paymentID"), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

func (h *PaymentHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := jwt.UserID(r.Context())

	receipts, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, receipts)
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ShivaSirikonda/smart-subscription/notification"
	"github.com/ShivaSirikonda/smart-subscription/payment"
	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

// JSONResponse is the envelope every endpoint responds with.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Error: &ErrorDetail{Code: code, Message: err.Error()},
	})
}

// classify maps domain sentinels onto HTTP statuses: validation 400,
// missing entities 404, foreign ownership 403, state conflicts 409,
// provider trouble 502, anything unrecognized 500.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrTokenRequired),
		errors.Is(err, payment.ErrNotRefundable),
		errors.Is(err, subscription.ErrPlanIDRequired),
		errors.Is(err, subscription.ErrInvalidTrialDays),
		errors.Is(err, subscription.ErrPlanCodeRequired),
		errors.Is(err, subscription.ErrPlanNameRequired),
		errors.Is(err, subscription.ErrPlanCycleRequired),
		errors.Is(err, subscription.ErrInvalidPrice),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "validation_error"

	case errors.Is(err, payment.ErrNotFound),
		errors.Is(err, payment.ErrSubscriptionNotFound),
		errors.Is(err, subscription.ErrNotFound),
		errors.Is(err, subscription.ErrNoActive),
		errors.Is(err, subscription.ErrPlanNotFound),
		errors.Is(err, notification.ErrNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, payment.ErrNotOwned),
		errors.Is(err, subscription.ErrNotOwned):
		return http.StatusForbidden, "forbidden"

	case errors.Is(err, payment.ErrAlreadyRefunded),
		errors.Is(err, subscription.ErrAlreadySubscribed),
		errors.Is(err, subscription.ErrAlreadyCancelled),
		errors.Is(err, subscription.ErrNotPausable),
		errors.Is(err, subscription.ErrNotResumable),
		errors.Is(err, subscription.ErrPlanInactive),
		errors.Is(err, subscription.ErrPlanCodeTaken):
		return http.StatusConflict, "conflict"

	case errors.Is(err, payment.ErrProviderFailure):
		return http.StatusBadGateway, "provider_error"

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("invalid request body")

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

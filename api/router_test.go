package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaSirikonda/smart-subscription/api"
	"github.com/ShivaSirikonda/smart-subscription/notification"
	"github.com/ShivaSirikonda/smart-subscription/payment"
	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
	"github.com/ShivaSirikonda/smart-subscription/subscription"
)

type testServer struct {
	srv       *httptest.Server
	jwt       *jwt.Service
	planSvc   *subscription.PlanService
	subStore  *subscription.MemoryStore
	payStore  *payment.MemoryStore
	inbox     *notification.MemoryStore
	publisher *notification.MemoryPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtSvc, err := jwt.NewFromString("test-signing-key-0123456789abcdef")
	require.NoError(t, err)

	subStore := subscription.NewMemoryStore()
	payStore := payment.NewMemoryStore()
	inbox := notification.NewMemoryStore()
	publisher := notification.NewMemoryPublisher()

	subSvc := subscription.NewService(subStore, subStore.Plans())
	planSvc := subscription.NewPlanService(subStore.Plans())
	paySvc := payment.NewService(payStore,
		payment.NewSimulatedProvider(payment.WithLatency(0)),
		subscription.NewStoreTransitioner(subStore),
		payment.WithPublisher(publisher))

	router := api.NewRouter(api.RouterConfig{
		JWT:           jwtSvc,
		Payments:      api.NewPaymentHandler(paySvc, nil),
		Subscriptions: api.NewSubscriptionHandler(subSvc, nil),
		Plans:         api.NewPlanHandler(planSvc, nil),
		Notifications: api.NewNotificationHandler(inbox, nil),
		AdminGuard:    func(next http.Handler) http.Handler { return next },
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		srv:       srv,
		jwt:       jwtSvc,
		planSvc:   planSvc,
		subStore:  subStore,
		payStore:  payStore,
		inbox:     inbox,
		publisher: publisher,
	}
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := ts.jwt.IssueAccessToken(userID, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	}
	return resp, envelope
}

func (ts *testServer) seedPlan(t *testing.T) *subscription.Plan {
	t.Helper()
	plan, err := ts.planSvc.Create(t.Context(), &subscription.Plan{
		Code:         "PRO",
		Name:         "Pro",
		Price:        decimal.NewFromFloat(50),
		BillingCycle: subscription.CycleMonthly,
		IsActive:     true,
	})
	require.NoError(t, err)
	return plan
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	newRouter := func(checks ...func(context.Context) error) http.Handler {
		jwtSvc, err := jwt.NewFromString("test-signing-key-0123456789abcdef")
		require.NoError(t, err)
		return api.NewRouter(api.RouterConfig{JWT: jwtSvc, Healthchecks: checks})
	}

	probe := func(h http.Handler) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return rec.Code
	}

	t.Run("no checks configured", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusOK, probe(newRouter()))
	})

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		healthy := func(context.Context) error { return nil }
		assert.Equal(t, http.StatusOK, probe(newRouter(healthy, healthy)))
	})

	t.Run("failing backend reports 503", func(t *testing.T) {
		t.Parallel()
		healthy := func(context.Context) error { return nil }
		down := func(context.Context) error { return errors.New("connection refused") }
		assert.Equal(t, http.StatusServiceUnavailable, probe(newRouter(healthy, down)))
	})
}

func TestRouterAuthentication(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/payments/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/payments/user", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/plans", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "plan listing is public")
}

func TestSubscribeChargeCancelFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	plan := ts.seedPlan(t)
	token := ts.token(t, "user-1")

	resp, body := ts.do(t, http.MethodPost, "/api/subscriptions", token,
		map[string]any{"planId": plan.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sub := body["data"].(map[string]any)
	subID := sub["id"].(string)
	assert.Equal(t, "ACTIVE", sub["status"])

	resp, body = ts.do(t, http.MethodPost, "/api/payments/process", token, map[string]any{
		"subscriptionId":     subID,
		"amount":             "50.00",
		"paymentMethodToken": "tok_valid",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	receipt := body["data"].(map[string]any)
	paymentID := receipt["paymentId"].(string)
	assert.Equal(t, "SUCCEEDED", receipt["status"])
	assert.NotEmpty(t, receipt["transactionId"])
	assert.NotContains(t, receipt, "refundAmount")

	resp, body = ts.do(t, http.MethodPost, fmt.Sprintf("/api/payments/%s/cancel", paymentID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refunded := body["data"].(map[string]any)
	assert.Equal(t, "REFUNDED", refunded["status"])
	assert.Equal(t, "49.5", refunded["refundAmount"])

	resp, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/subscriptions/%s", subID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PENDING", body["data"].(map[string]any)["status"])
}

func TestErrorStatusMapping(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	plan := ts.seedPlan(t)
	owner := ts.token(t, "user-1")
	stranger := ts.token(t, "user-2")

	resp, body := ts.do(t, http.MethodPost, "/api/subscriptions", owner,
		map[string]any{"planId": plan.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	subID := body["data"].(map[string]any)["id"].(string)

	t.Run("validation 400", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/api/payments/process", owner, map[string]any{
			"subscriptionId":     subID,
			"amount":             "0",
			"paymentMethodToken": "tok_valid",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation_error", body["error"].(map[string]any)["code"])
	})

	t.Run("not found 404", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/payments/missing", owner, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("foreign subscription 403", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/api/payments/process", stranger, map[string]any{
			"subscriptionId":     subID,
			"amount":             "50.00",
			"paymentMethodToken": "tok_valid",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("duplicate subscription 409", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/api/subscriptions", owner,
			map[string]any{"planId": plan.ID})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("provider failure 502", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/api/payments/process", owner, map[string]any{
			"subscriptionId":     subID,
			"amount":             "50.00",
			"paymentMethodToken": payment.FailToken,
		})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "provider_error", body["error"].(map[string]any)["code"])
	})
}

func TestNotificationInboxEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	consumer := notification.NewConsumer(ts.inbox,
		notification.NewDevEmailSender(nil), notification.NewDevSMSSender(nil))
	consumer.Process(t.Context(), notification.NewMessage(
		"user-1", notification.TypePaymentSuccess, "Payment Successful", "ok", nil))

	resp, body := ts.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	id := items[0].(map[string]any)["id"].(string)

	resp, body = ts.do(t, http.MethodGet, "/api/notifications/unread/count", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["count"])

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", id), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/notifications/unread/count", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["data"].(map[string]any)["count"])
}

func TestAdminPlanManagement(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token := ts.token(t, "admin-1")

	resp, body := ts.do(t, http.MethodPost, "/api/admin/plans", token, map[string]any{
		"code":         "team",
		"name":         "Team",
		"price":        "99.99",
		"billingCycle": "MONTHLY",
		"isActive":     true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["data"].(map[string]any)
	assert.Equal(t, "TEAM", created["code"], "plan codes are upper-cased")
	planID := created["id"].(string)

	resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/admin/plans/%s/toggle", planID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/plans", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, item := range body["data"].([]any) {
		assert.NotEqual(t, "TEAM", item.(map[string]any)["code"], "deactivated plans are hidden from signup")
	}
}

package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaSirikonda/smart-subscription/pkg/jwt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	token, err := svc.IssueAccessToken("user-42", time.Hour)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	userID, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestVerifyAccessTokenRejects(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		token, err := svc.IssueAccessToken("user-42", -time.Minute)
		require.NoError(t, err)

		_, err = svc.VerifyAccessToken(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		t.Parallel()
		token, err := svc.IssueAccessToken("user-42", time.Hour)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		_, err = svc.VerifyAccessToken(parts[0] + "." + parts[1] + ".tampered")
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("foreign key", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.NewFromString("another-key-another-key-another!")
		require.NoError(t, err)
		token, err := other.IssueAccessToken("user-42", time.Hour)
		require.NoError(t, err)

		_, err = svc.VerifyAccessToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := svc.VerifyAccessToken("not-a-token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	handler := jwt.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := jwt.UserID(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(userID))
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		t.Parallel()
		token, err := svc.IssueAccessToken("user-42", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

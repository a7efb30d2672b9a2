package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/provider-gateway/metrics"
	"github.com/upb/provider-gateway/models"
	"github.com/upb/provider-gateway/repositories/inmemory"
	"github.com/upb/provider-gateway/services/guard"
	"go.uber.org/zap"
)

func newTestMiddleware(t *testing.T) (*GuardMiddleware, *models.IssuedKey) {
	t.Helper()

	g := guard.NewGuard(inmemory.NewKeyRepository(), zap.NewNop())
	issued, err := g.IssueKey(context.Background(), 2)
	require.NoError(t, err)

	m := NewGuardMiddleware(g, metrics.New(nil), "admin-secret", zap.NewNop())
	return m, issued
}

func okHandler(captured **models.APIKey) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = GetAPIKeyFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKey_Admitted(t *testing.T) {
	m, issued := newTestMiddleware(t)

	var captured *models.APIKey
	handler := m.RequireAPIKey(okHandler(&captured))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("Authorization", "Bearer "+issued.APIKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, issued.KeyID, captured.KeyID)
}

func TestRequireAPIKey_Unauthorized(t *testing.T) {
	m, issued := newTestMiddleware(t)
	handler := m.RequireAPIKey(okHandler(nil))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"unprefixed key", "Bearer sk-1234567890"},
		{"unknown key", "Bearer mel_ffffffffffffffffffffffffffffffffffffffffffffffff"},
		{"wrong secret same id", "Bearer " + issued.KeyID + "0000000000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			// The instruction names the expected credential shape.
			assert.Contains(t, w.Body.String(), "Bearer mel_")
		})
	}
}

func TestRequireAPIKey_RateLimited(t *testing.T) {
	m, issued := newTestMiddleware(t)
	handler := m.RequireAPIKey(okHandler(nil))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
		req.Header.Set("Authorization", "Bearer "+issued.APIKey)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	// The issued key allows 2 requests per window.
	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRequireAdmin(t *testing.T) {
	m, _ := newTestMiddleware(t)
	handler := m.RequireAdmin(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/keys", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/keys", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin_NoTokenConfigured(t *testing.T) {
	g := guard.NewGuard(inmemory.NewKeyRepository(), zap.NewNop())
	m := NewGuardMiddleware(g, metrics.New(nil), "", zap.NewNop())
	handler := m.RequireAdmin(okHandler(nil))

	// An empty configured token never matches, even an empty bearer.
	req := httptest.NewRequest(http.MethodPost, "/v1/keys", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	// A client-supplied id is propagated unchanged.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

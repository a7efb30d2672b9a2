package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/upb/provider-gateway/metrics"
	"github.com/upb/provider-gateway/services"
	"github.com/upb/provider-gateway/services/guard"
	"github.com/upb/provider-gateway/utils"
	"go.uber.org/zap"
)

// GuardMiddleware authenticates bearer credentials and enforces per-key
// admission before a request reaches the completion handler
type GuardMiddleware struct {
	guard      *guard.Guard
	metrics    *metrics.Metrics
	adminToken string
	logger     *zap.Logger
}

// NewGuardMiddleware creates a new GuardMiddleware
func NewGuardMiddleware(g *guard.Guard, m *metrics.Metrics, adminToken string, logger *zap.Logger) *GuardMiddleware {
	return &GuardMiddleware{
		guard:      g,
		metrics:    m,
		adminToken: adminToken,
		logger:     logger,
	}
}

// RequireAPIKey authenticates the bearer credential and runs the
// rate-limit admission check. Authentication failures answer 401 without
// revealing which check failed; denials answer 429 with a Retry-After.
func (m *GuardMiddleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		rawKey := extractBearerToken(r)
		if rawKey == "" {
			m.metrics.RecordAuthFailure()
			m.logger.Warn("missing credential", zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Provide an API key as 'Authorization: Bearer "+guard.KeyMarker+"...'")
			return
		}

		key, err := m.guard.Authenticate(ctx, rawKey)
		if err != nil {
			m.metrics.RecordAuthFailure()
			m.logger.Warn("authentication rejected", zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Provide an API key as 'Authorization: Bearer "+guard.KeyMarker+"...'")
			return
		}

		remaining, err := m.guard.Admit(ctx, key)
		if err != nil {
			m.metrics.RecordDenial()
			retryAfter, _ := services.RetryAfter(err)
			_ = utils.WriteRateLimited(w, "Rate limit exceeded", retryAfter)
			return
		}

		m.metrics.RecordAdmission()
		m.logger.Debug("request admitted",
			zap.String("request_id", requestID),
			zap.String("key_id", key.KeyID),
			zap.Int("remaining", remaining))

		next.ServeHTTP(w, r.WithContext(WithAPIKey(ctx, key)))
	})
}

// RequireAdmin gates key-management endpoints behind the configured admin
// token. When no token is configured the endpoints are unavailable.
func (m *GuardMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if m.adminToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(m.adminToken)) != 1 {
			m.logger.Warn("admin authentication rejected",
				zap.String("request_id", GetRequestIDFromContext(r.Context())))
			_ = utils.WriteUnauthorized(w, "Admin token required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractBearerToken extracts the bearer credential from the
// Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

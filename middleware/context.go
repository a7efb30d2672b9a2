package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/provider-gateway/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// APIKeyKey is the context key for the authenticated key record
	APIKeyKey contextKey = "api_key"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetAPIKeyFromContext retrieves the authenticated key record from context
func GetAPIKeyFromContext(ctx context.Context) *models.APIKey {
	if val := ctx.Value(APIKeyKey); val != nil {
		if key, ok := val.(*models.APIKey); ok {
			return key
		}
	}
	return nil
}

// WithAPIKey adds the authenticated key record to the context
func WithAPIKey(ctx context.Context, key *models.APIKey) context.Context {
	return context.WithValue(ctx, APIKeyKey, key)
}

// RequestID assigns every request a correlation id, reusing the client's
// X-Request-ID when present
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/upb/provider-gateway/metrics"
	"github.com/upb/provider-gateway/middleware"
	"github.com/upb/provider-gateway/models"
	"github.com/upb/provider-gateway/services"
	"github.com/upb/provider-gateway/services/providers"
	"github.com/upb/provider-gateway/utils"
	"go.uber.org/zap"
)

// CompletionHandler serves the chat completion endpoint. It validates the
// request, routes it to the provider serving the model, and relays the
// normalized response.
type CompletionHandler struct {
	registry *providers.Registry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewCompletionHandler creates a new CompletionHandler
func NewCompletionHandler(registry *providers.Registry, m *metrics.Metrics, logger *zap.Logger) *CompletionHandler {
	return &CompletionHandler{
		registry: registry,
		metrics:  m,
		logger:   logger,
	}
}

// HandleChatCompletion handles POST /v1/chat/completions
func (h *CompletionHandler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req models.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	req.Sanitize()

	// Structural checks run before any provider work; a failing request
	// consumes no retry budget and no upstream call.
	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, services.NewValidationError(err.Error(), err), h.logger)
		return
	}

	provider, err := h.registry.GetProviderForModel(req.Model)
	if err != nil {
		if errors.Is(err, providers.ErrModelNotSupported) {
			HandleServiceError(w, services.NewValidationError("unsupported model: "+req.Model, err), h.logger)
			return
		}
		HandleServiceError(w, services.WrapInternal("provider lookup failed", err), h.logger)
		return
	}

	start := time.Now()
	resp, err := provider.Generate(ctx, &req)
	duration := time.Since(start)

	if err != nil {
		errType := string(services.GetErrorType(err))
		h.metrics.RecordRequest(req.Model, "error", duration)
		h.metrics.RecordUpstreamError(provider.Name(), errType)
		h.logger.Warn("completion failed",
			zap.String("request_id", requestID),
			zap.String("model", req.Model),
			zap.String("provider", provider.Name()),
			zap.String("error_type", errType),
			zap.Duration("duration", duration))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.metrics.RecordRequest(req.Model, "success", duration)
	h.logger.Info("completion served",
		zap.String("request_id", requestID),
		zap.String("model", req.Model),
		zap.String("provider", provider.Name()),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", duration))

	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

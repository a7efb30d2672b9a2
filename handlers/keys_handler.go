package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/provider-gateway/services"
	"github.com/upb/provider-gateway/services/guard"
	"github.com/upb/provider-gateway/utils"
	"go.uber.org/zap"
)

// IssueKeyRequest is the optional body for key issuance
type IssueKeyRequest struct {
	RateLimit int `json:"rate_limit,omitempty" validate:"omitempty,gte=1,lte=100000"`
}

// KeysHandler serves the admin key-management endpoints
type KeysHandler struct {
	guard            *guard.Guard
	defaultRateLimit int
	logger           *zap.Logger
}

// NewKeysHandler creates a new KeysHandler
func NewKeysHandler(g *guard.Guard, defaultRateLimit int, logger *zap.Logger) *KeysHandler {
	return &KeysHandler{
		guard:            g,
		defaultRateLimit: defaultRateLimit,
		logger:           logger,
	}
}

// HandleIssueKey handles POST /v1/keys. The response carries the raw
// secret exactly once; it cannot be retrieved again.
func (h *KeysHandler) HandleIssueKey(w http.ResponseWriter, r *http.Request) {
	var req IssueKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	rateLimit := req.RateLimit
	if rateLimit == 0 {
		rateLimit = h.defaultRateLimit
	}

	issued, err := h.guard.IssueKey(r.Context(), rateLimit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, issued)
}

// HandleListKeys handles GET /v1/keys. Listings expose metadata only,
// never secrets or hashes.
func (h *KeysHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	infos, err := h.guard.ListKeys(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{"keys": infos})
}

// HandleDeactivateKey handles DELETE /v1/keys/{keyID}. Deactivation is
// terminal; the record is retained for audit.
func (h *KeysHandler) HandleDeactivateKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")
	if keyID == "" {
		_ = utils.WriteBadRequest(w, "key ID is required", nil)
		return
	}

	if err := h.guard.DeactivateKey(r.Context(), keyID); err != nil {
		if services.IsValidationError(err) {
			_ = utils.WriteNotFound(w, "unknown key id")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]string{"key_id": keyID, "status": "deactivated"})
}

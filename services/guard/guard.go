package guard

import (
	"context"
	"errors"
	"time"

	"github.com/upb/provider-gateway/models"
	"github.com/upb/provider-gateway/repositories"
	"github.com/upb/provider-gateway/services"
	"go.uber.org/zap"
)

// Guard owns credential issuance, authentication and per-key admission.
// Key records live in the configured repository; rate windows are always
// in-process.
type Guard struct {
	keys    repositories.KeyRepository
	windows *RateWindows
	logger  *zap.Logger
}

// NewGuard creates a guard backed by the given key repository
func NewGuard(keys repositories.KeyRepository, logger *zap.Logger) *Guard {
	return &Guard{
		keys:    keys,
		windows: NewRateWindows(),
		logger:  logger,
	}
}

// IssueKey mints a new credential with the given per-minute limit
// (DefaultRateLimit when non-positive) and stores its derived record. The
// returned IssuedKey carries the raw secret; it is not recoverable later.
func (g *Guard) IssueKey(ctx context.Context, rateLimit int) (*models.IssuedKey, error) {
	rawKey, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	keyID, err := DeriveKeyID(rawKey)
	if err != nil {
		return nil, services.WrapInternal("generated key failed derivation", err)
	}

	hash, err := HashKey(rawKey)
	if err != nil {
		return nil, err
	}

	record := models.NewAPIKey(keyID, hash, rateLimit)
	if err := g.keys.Put(ctx, record); err != nil {
		return nil, services.WrapInternal("failed to store key record", err)
	}

	g.logger.Info("api key issued",
		zap.String("key_id", keyID),
		zap.Int("rate_limit", record.RateLimit))

	return &models.IssuedKey{
		APIKey:    rawKey,
		KeyID:     keyID,
		RateLimit: record.RateLimit,
	}, nil
}

// Authenticate resolves a raw bearer credential to its stored record.
// Every rejection, whatever the cause, returns the same unauthorized
// error so callers cannot probe which check failed.
func (g *Guard) Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	keyID, err := DeriveKeyID(rawKey)
	if err != nil {
		return nil, services.ErrInvalidAPIKey
	}

	record, err := g.keys.Lookup(ctx, keyID)
	if err != nil {
		if !errors.Is(err, repositories.ErrKeyNotFound) {
			g.logger.Error("key lookup failed", zap.String("key_id", keyID), zap.Error(err))
		}
		return nil, services.ErrInvalidAPIKey
	}

	if !record.IsActive {
		return nil, services.ErrInvalidAPIKey
	}
	if !VerifyKey(record.KeyHash, rawKey) {
		return nil, services.ErrInvalidAPIKey
	}

	return record, nil
}

// Admit runs the sliding-window check for an authenticated key. On
// admission the key's last_used is updated; on denial a rate-limit error
// with a retry hint is returned and the window is left unchanged.
func (g *Guard) Admit(ctx context.Context, key *models.APIKey) (int, error) {
	admitted, remaining, retryAfter := g.windows.Allow(key.KeyID, key.RateLimit)
	if !admitted {
		g.logger.Warn("request denied by rate limit",
			zap.String("key_id", key.KeyID),
			zap.Int("rate_limit", key.RateLimit))
		return 0, services.NewRateLimitError("rate limit exceeded", retryAfter)
	}

	key.Touch(time.Now())
	if err := g.keys.Put(ctx, key); err != nil {
		// The request was already admitted; a failed usage update must
		// not reject it.
		g.logger.Error("failed to update last_used",
			zap.String("key_id", key.KeyID), zap.Error(err))
	}

	return remaining, nil
}

// DeactivateKey permanently disables a key. The record is retained and
// keeps appearing in listings; there is no reactivation path.
func (g *Guard) DeactivateKey(ctx context.Context, keyID string) error {
	record, err := g.keys.Lookup(ctx, keyID)
	if err != nil {
		if errors.Is(err, repositories.ErrKeyNotFound) {
			return services.NewValidationError("unknown key id", nil)
		}
		return services.WrapInternal("failed to load key record", err)
	}

	record.Deactivate()
	if err := g.keys.Put(ctx, record); err != nil {
		return services.WrapInternal("failed to store key record", err)
	}

	g.logger.Info("api key deactivated", zap.String("key_id", keyID))
	return nil
}

// ListKeys returns the audit-safe view of every stored key
func (g *Guard) ListKeys(ctx context.Context) ([]models.APIKeyInfo, error) {
	records, err := g.keys.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list key records", err)
	}

	infos := make([]models.APIKeyInfo, len(records))
	for i, record := range records {
		infos[i] = record.Info()
	}
	return infos, nil
}

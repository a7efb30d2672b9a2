package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/provider-gateway/models"
	"github.com/upb/provider-gateway/repositories"
	"go.uber.org/zap"
)

// APIKeyRepository implements repositories.KeyRepository on PostgreSQL
type APIKeyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB, logger *zap.Logger) repositories.KeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger,
	}
}

// Lookup fetches the record for a key ID
func (r *APIKeyRepository) Lookup(ctx context.Context, keyID string) (*models.APIKey, error) {
	query := `
		SELECT key_id, key_hash, created_at, last_used, is_active, rate_limit
		FROM api_keys
		WHERE key_id = $1
	`

	key := &models.APIKey{}
	err := r.db.QueryRowContext(ctx, query, keyID).Scan(
		&key.KeyID,
		&key.KeyHash,
		&key.CreatedAt,
		&key.LastUsed,
		&key.IsActive,
		&key.RateLimit,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	return key, nil
}

// Put inserts or replaces the record for key.KeyID
func (r *APIKeyRepository) Put(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (key_id, key_hash, created_at, last_used, is_active, rate_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key_id) DO UPDATE
		SET key_hash = EXCLUDED.key_hash,
		    last_used = EXCLUDED.last_used,
		    is_active = EXCLUDED.is_active,
		    rate_limit = EXCLUDED.rate_limit
	`

	_, err := r.db.ExecContext(ctx, query,
		key.KeyID,
		key.KeyHash,
		key.CreatedAt,
		key.LastUsed,
		key.IsActive,
		key.RateLimit,
	)

	if err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}

	r.logger.Debug("api key stored", zap.String("key_id", key.KeyID))
	return nil
}

// List returns all stored records ordered by creation time
func (r *APIKeyRepository) List(ctx context.Context) ([]*models.APIKey, error) {
	query := `
		SELECT key_id, key_hash, created_at, last_used, is_active, rate_limit
		FROM api_keys
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key := &models.APIKey{}
		err := rows.Scan(
			&key.KeyID,
			&key.KeyHash,
			&key.CreatedAt,
			&key.LastUsed,
			&key.IsActive,
			&key.RateLimit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api key rows: %w", err)
	}

	return keys, nil
}

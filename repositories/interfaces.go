package repositories

import (
	"context"
	"errors"

	"github.com/upb/provider-gateway/models"
)

// ErrKeyNotFound is returned when no record exists for a key ID
var ErrKeyNotFound = errors.New("api key not found")

// KeyRepository is the storage port for issued API keys. Implementations
// must be safe for concurrent use.
type KeyRepository interface {
	// Lookup fetches the record for a key ID, ErrKeyNotFound when absent
	Lookup(ctx context.Context, keyID string) (*models.APIKey, error)

	// Put inserts or replaces the record for key.KeyID
	Put(ctx context.Context, key *models.APIKey) error

	// List returns all stored records, active and deactivated
	List(ctx context.Context) ([]*models.APIKey, error)
}

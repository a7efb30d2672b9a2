package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/upb/provider-gateway/models"
	"github.com/upb/provider-gateway/repositories"
)

// KeyRepository is the default in-process key store. Records live for the
// lifetime of the process.
type KeyRepository struct {
	mu   sync.RWMutex
	keys map[string]models.APIKey
}

// NewKeyRepository creates an empty in-memory key repository
func NewKeyRepository() *KeyRepository {
	return &KeyRepository{
		keys: make(map[string]models.APIKey),
	}
}

// Lookup fetches the record for a key ID
func (r *KeyRepository) Lookup(ctx context.Context, keyID string) (*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[keyID]
	if !ok {
		return nil, repositories.ErrKeyNotFound
	}
	return &key, nil
}

// Put inserts or replaces the record for key.KeyID
func (r *KeyRepository) Put(ctx context.Context, key *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[key.KeyID] = *key
	return nil
}

// List returns all stored records ordered by key ID
func (r *KeyRepository) List(ctx context.Context) ([]*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.APIKey, 0, len(r.keys))
	for id := range r.keys {
		key := r.keys[id]
		out = append(out, &key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyID < out[j].KeyID })
	return out, nil
}

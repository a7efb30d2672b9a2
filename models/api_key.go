package models

import "time"

// DefaultRateLimit is the per-key request quota for a 60-second window
const DefaultRateLimit = 100

// APIKey is the stored record for an issued credential. Only the derived
// key ID and the one-way hash are persisted; the raw secret is returned
// to the issuer exactly once and is unrecoverable afterwards.
type APIKey struct {
	KeyID     string     `json:"key_id" db:"key_id"`
	KeyHash   string     `json:"-" db:"key_hash"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty" db:"last_used"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	RateLimit int        `json:"rate_limit" db:"rate_limit"`
}

// TableName returns the table name for the APIKey model
func (APIKey) TableName() string {
	return "api_keys"
}

// NewAPIKey creates a stored key record. keyID must already be derived
// from the raw secret and keyHash must be its one-way hash.
func NewAPIKey(keyID, keyHash string, rateLimit int) *APIKey {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	return &APIKey{
		KeyID:     keyID,
		KeyHash:   keyHash,
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
		RateLimit: rateLimit,
	}
}

// Touch records a successful use of the key
func (k *APIKey) Touch(at time.Time) {
	t := at.UTC()
	k.LastUsed = &t
}

// Deactivate permanently disables the key for authentication. The record
// is retained for audit and is never physically deleted.
func (k *APIKey) Deactivate() {
	k.IsActive = false
}

// APIKeyInfo is the introspection view of a key. It never exposes the
// raw secret or its hash.
type APIKeyInfo struct {
	KeyID     string     `json:"key_id"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	IsActive  bool       `json:"is_active"`
	RateLimit int        `json:"rate_limit"`
}

// Info returns the audit-safe view of the key
func (k *APIKey) Info() APIKeyInfo {
	return APIKeyInfo{
		KeyID:     k.KeyID,
		CreatedAt: k.CreatedAt,
		LastUsed:  k.LastUsed,
		IsActive:  k.IsActive,
		RateLimit: k.RateLimit,
	}
}

// IssuedKey is the one-time issuance output carrying the raw secret
type IssuedKey struct {
	APIKey    string `json:"api_key"`
	KeyID     string `json:"key_id"`
	RateLimit int    `json:"rate_limit"`
}

package guard

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/upb/provider-gateway/services"
	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyMarker prefixes every issued credential
	KeyMarker = "mel_"

	// keySecretBytes is the entropy of the random portion; hex-encoded it
	// yields 48 characters after the marker
	keySecretBytes = 24

	// keyIDChars is how many leading characters of the random portion make
	// up the public key ID
	keyIDChars = 8
)

// GenerateKey produces a fresh raw credential: the marker followed by a
// hex-encoded random secret. The raw value is shown to the caller exactly
// once; only its hash is ever stored.
func GenerateKey() (string, error) {
	buf := make([]byte, keySecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", services.WrapInternal("failed to generate key material", err)
	}
	return KeyMarker + hex.EncodeToString(buf), nil
}

// DeriveKeyID computes the public identifier of a raw credential: the
// marker plus the first 8 characters of the random portion. The same raw
// key always yields the same ID.
func DeriveKeyID(rawKey string) (string, error) {
	if !strings.HasPrefix(rawKey, KeyMarker) {
		return "", services.ErrInvalidAPIKey
	}
	random := rawKey[len(KeyMarker):]
	if len(random) < keyIDChars {
		return "", services.ErrInvalidAPIKey
	}
	return KeyMarker + random[:keyIDChars], nil
}

// HashKey produces the one-way hash stored in place of the raw credential
func HashKey(rawKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return "", services.WrapInternal("failed to hash key", err)
	}
	return string(hash), nil
}

// VerifyKey reports whether a raw credential matches a stored hash
func VerifyKey(hash, rawKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)) == nil
}

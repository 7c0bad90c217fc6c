package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashPrefix marks anonymized values.
const HashPrefix = "HASH_"

// Anonymize returns "HASH_" followed by the hex SHA-256 digest of value.
// The result is stable across runs and platforms.
func Anonymize(value string) string {
	sum := sha256.Sum256([]byte(value))
	return HashPrefix + hex.EncodeToString(sum[:])
}

// Hasher anonymizes values, optionally keyed with a secret.
type Hasher struct {
	key []byte
}

// NewHasher creates a Hasher. With an empty key it behaves like Anonymize;
// otherwise values are digested with HMAC-SHA-256 so identifiers can only
// be reproduced by someone holding the same key.
func NewHasher(key string) *Hasher {
	h := &Hasher{}
	if key != "" {
		h.key = []byte(key)
	}
	return h
}

// Keyed reports whether the hasher uses a secret key.
func (h *Hasher) Keyed() bool {
	return h != nil && len(h.key) > 0
}

// Anonymize transforms value. A nil Hasher is unkeyed.
func (h *Hasher) Anonymize(value string) string {
	if !h.Keyed() {
		return Anonymize(value)
	}

	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(value))
	return HashPrefix + hex.EncodeToString(mac.Sum(nil))
}

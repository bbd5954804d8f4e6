package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"burna/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a session key so two
// participants can compare keys out of band without revealing them.
//
// It hashes with SHA-256 under a fixed label and truncates to 10 bytes (20 hex chars).
func Fingerprint(key domain.SessionKey) domain.Fingerprint {
	h := sha256.New()
	h.Write([]byte("burna session key fingerprint"))
	h.Write(key[:])
	sum := h.Sum(nil)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}

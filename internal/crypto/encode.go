package crypto

import (
	"encoding/base64"
	"fmt"

	"burna/internal/domain"
)

// EncodeKey returns the URL-safe, unpadded base64 form of key, for embedding
// in a link fragment.
func EncodeKey(key domain.SessionKey) string {
	return base64.RawURLEncoding.EncodeToString(key[:])
}

// DecodeKey parses the output of EncodeKey.
func DecodeKey(s string) (domain.SessionKey, error) {
	var key domain.SessionKey
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("%w: key: %v", domain.ErrDecoding, err)
	}
	defer Wipe(b)
	if len(b) != domain.SessionKeySize {
		return key, fmt.Errorf("%w: key is %d bytes, want %d", domain.ErrDecoding, len(b), domain.SessionKeySize)
	}
	copy(key[:], b)
	return key, nil
}

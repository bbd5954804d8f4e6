package crypto

import (
	"encoding/base32"
	"fmt"
	"io"
	"strings"

	"burna/internal/domain"
)

// anonymousIDPrefix marks device pseudonyms so they are recognisable in
// stored rows.
const anonymousIDPrefix = "anon_"

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewSessionKey returns a fresh 256-bit session key. A failing random
// source is fatal and wraps domain.ErrEntropy.
func NewSessionKey() (domain.SessionKey, error) {
	var key domain.SessionKey
	if _, err := io.ReadFull(randReader, key[:]); err != nil {
		return domain.SessionKey{}, fmt.Errorf("%w: session key: %v", domain.ErrEntropy, err)
	}
	return key, nil
}

// NewAnonymousID returns a random, unlinkable device pseudonym.
func NewAnonymousID() (domain.AnonymousID, error) {
	var raw [16]byte
	if _, err := io.ReadFull(randReader, raw[:]); err != nil {
		return "", fmt.Errorf("%w: anonymous id: %v", domain.ErrEntropy, err)
	}
	return domain.AnonymousID(anonymousIDPrefix + strings.ToLower(idEncoding.EncodeToString(raw[:]))), nil
}

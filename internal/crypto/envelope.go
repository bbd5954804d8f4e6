package crypto

import (
	"encoding/json"
	"fmt"

	"burna/internal/domain"
)

const (
	// envelopeVersion is the current sealed-payload format.
	envelopeVersion = 1
	envelopeAlg     = "xchacha20poly1305"
)

// envelope is the stored form of one encrypted payload. []byte fields are
// base64 encoded by encoding/json.
type envelope struct {
	V     int    `json:"v"`
	Alg   string `json:"alg"`
	Nonce []byte `json:"nonce"`
	CT    []byte `json:"ct"`
}

// Seal encrypts plaintext and returns ciphertext and nonce as a single
// transport-safe string suitable for the messages.ciphertext column.
func Seal(key domain.SessionKey, plaintext, ad []byte) (string, error) {
	ct, nonce, err := Encrypt(key, plaintext, ad)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(envelope{V: envelopeVersion, Alg: envelopeAlg, Nonce: nonce, CT: ct})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Open reverses Seal. Malformed input wraps domain.ErrDecoding; a tag
// mismatch is domain.ErrAuthentication.
func Open(key domain.SessionKey, sealed string, ad []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal([]byte(sealed), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecoding, err)
	}
	if env.V != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", domain.ErrDecoding, env.V)
	}
	if env.Alg != envelopeAlg {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", domain.ErrDecoding, env.Alg)
	}
	if len(env.CT) < Overhead {
		return nil, fmt.Errorf("%w: ciphertext too short", domain.ErrDecoding)
	}
	return Decrypt(key, env.CT, env.Nonce, ad)
}

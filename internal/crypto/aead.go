package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"burna/internal/domain"
)

const (
	// NonceBytes is the XChaCha20-Poly1305 nonce size. At 192 bits, random
	// nonces do not collide for any realistic number of messages per key.
	NonceBytes = chacha20poly1305.NonceSizeX
	// Overhead is the authentication tag appended to every ciphertext.
	Overhead = chacha20poly1305.Overhead
)

// randReader is the entropy source for keys and nonces.
var randReader io.Reader = rand.Reader

// Encrypt seals plaintext under key with a fresh random nonce. The returned
// ciphertext includes the authentication tag. ad is authenticated but not
// encrypted and may be nil.
func Encrypt(key domain.SessionKey, plaintext, ad []byte) (ciphertext, nonce []byte, err error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceBytes)
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: nonce: %v", domain.ErrEntropy, err)
	}
	return aead.Seal(nil, nonce, plaintext, ad), nonce, nil
}

// Decrypt opens ciphertext with key and nonce. Any tampering, a wrong key or
// mismatched ad yields domain.ErrAuthentication.
func Decrypt(key domain.SessionKey, ciphertext, nonce, ad []byte) ([]byte, error) {
	if len(nonce) != NonceBytes {
		return nil, fmt.Errorf("%w: nonce is %d bytes, want %d", domain.ErrDecoding, len(nonce), NonceBytes)
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, domain.ErrAuthentication
	}
	return pt, nil
}

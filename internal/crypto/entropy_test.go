package crypto

import (
	"errors"
	"testing"

	"burna/internal/domain"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestEntropyFailure(t *testing.T) {
	orig := randReader
	randReader = failingReader{}
	t.Cleanup(func() { randReader = orig })

	if _, err := NewSessionKey(); !errors.Is(err, domain.ErrEntropy) {
		t.Fatalf("NewSessionKey err = %v, want ErrEntropy", err)
	}
	if _, err := NewAnonymousID(); !errors.Is(err, domain.ErrEntropy) {
		t.Fatalf("NewAnonymousID err = %v, want ErrEntropy", err)
	}
	if _, _, err := Encrypt(domain.SessionKey{1}, []byte("x"), nil); !errors.Is(err, domain.ErrEntropy) {
		t.Fatalf("Encrypt err = %v, want ErrEntropy", err)
	}
}

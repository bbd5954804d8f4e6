package keys

import (
	"fmt"

	"github.com/rs/zerolog"

	"burna/internal/crypto"
	"burna/internal/domain"
)

// Service manages session keys using a backing store.
type Service struct {
	store domain.KeyStore
	log   zerolog.Logger
}

// New returns a key service backed by the given store.
func New(s domain.KeyStore, log zerolog.Logger) *Service {
	return &Service{store: s, log: log.With().Str("component", "keys").Logger()}
}

// CreateKey returns a fresh 256-bit session key. It does not persist it.
func (s *Service) CreateKey() (domain.SessionKey, error) {
	return crypto.NewSessionKey()
}

// StoreKey persists key for id, overwriting any earlier value.
func (s *Service) StoreKey(id domain.SessionID, key domain.SessionKey) error {
	if key.IsZero() {
		return fmt.Errorf("store key for %s: key is zero", id)
	}
	if err := s.store.SaveKey(id, key); err != nil {
		return fmt.Errorf("store key for %s: %w", id, err)
	}
	s.log.Debug().Str("session_id", id.String()).Str("fingerprint", crypto.Fingerprint(key).String()).Msg("session key stored")
	return nil
}

// LoadKey returns the stored key for id; ok is false when there is none.
func (s *Service) LoadKey(id domain.SessionID) (domain.SessionKey, bool, error) {
	key, ok, err := s.store.LoadKey(id)
	if err != nil {
		return domain.SessionKey{}, false, fmt.Errorf("load key for %s: %w", id, err)
	}
	return key, ok, nil
}

// EraseKey removes the key for id. Erasing an absent key is not an error.
func (s *Service) EraseKey(id domain.SessionID) error {
	if err := s.store.DeleteKey(id); err != nil {
		return fmt.Errorf("erase key for %s: %w", id, err)
	}
	s.log.Debug().Str("session_id", id.String()).Msg("session key erased")
	return nil
}

// Compile-time assertion that Service implements domain.KeyManager.
var _ domain.KeyManager = (*Service)(nil)

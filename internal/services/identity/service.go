package identity

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"burna/internal/crypto"
	"burna/internal/domain"
)

// Service hands out the device's anonymous identity, creating it on first use.
type Service struct {
	store domain.DeviceStore
	clock clock.Clock

	mu     sync.Mutex
	cached domain.AnonymousID
}

// New returns an identity service backed by the given store.
func New(s domain.DeviceStore, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{store: s, clock: clk}
}

// AnonymousID returns the persisted identifier, generating and saving one on
// a fresh install.
func (s *Service) AnonymousID() (domain.AnonymousID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}
	dev, ok, err := s.store.LoadDevice()
	if err != nil {
		return "", fmt.Errorf("load device: %w", err)
	}
	if !ok {
		id, err := crypto.NewAnonymousID()
		if err != nil {
			return "", err
		}
		dev = domain.Device{AnonymousID: id, CreatedAt: s.clock.Now().UTC()}
		if err := s.store.SaveDevice(dev); err != nil {
			return "", fmt.Errorf("save device: %w", err)
		}
	}
	s.cached = dev.AnonymousID
	return s.cached, nil
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)

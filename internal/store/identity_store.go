package store

import (
	"path/filepath"
	"sync"

	"burna/internal/domain"
)

const deviceFilename = "device.json"

// IdentityFileStore persists the device's anonymous identity to disk.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

// SaveDevice writes the device record.
func (s *IdentityFileStore) SaveDevice(device domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(filepath.Join(s.dir, deviceFilename), device, 0o600)
}

// LoadDevice reads the device record; ok is false on a fresh install.
func (s *IdentityFileStore) LoadDevice() (domain.Device, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var device domain.Device
	found, err := readJSON(filepath.Join(s.dir, deviceFilename), &device)
	if err != nil || !found {
		return domain.Device{}, false, err
	}
	return device, device.AnonymousID != "", nil
}

// Compile-time assertion that IdentityFileStore implements domain.DeviceStore.
var _ domain.DeviceStore = (*IdentityFileStore)(nil)

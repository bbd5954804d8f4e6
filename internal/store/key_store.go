package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"burna/internal/crypto"
	"burna/internal/domain"
)

const (
	keysFilename       = "keys.json"
	sealedKeysFilename = "keys.enc"
)

// keyRecord is one entry of the on-disk keyring.
type keyRecord struct {
	Key      []byte    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
}

type keyring map[domain.SessionID]keyRecord

// KeyFileStore persists session keys on the local device. With a non-empty
// passphrase the keyring is sealed at rest in keys.enc; otherwise it is
// plain JSON in keys.json. Both are written 0600.
type KeyFileStore struct {
	dir        string
	passphrase string
	kdf        kdfParams
	mu         sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir.
func NewKeyFileStore(dir, passphrase string) *KeyFileStore {
	return &KeyFileStore{dir: dir, passphrase: passphrase, kdf: defaultKDF()}
}

// Sealed reports whether the keyring is encrypted at rest.
func (s *KeyFileStore) Sealed() bool { return s.passphrase != "" }

// SaveKey stores key for id, replacing any previous value.
func (s *KeyFileStore) SaveKey(id domain.SessionID, key domain.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.read()
	if err != nil {
		return err
	}
	defer wipeRing(ring)
	ring[id] = keyRecord{Key: append([]byte(nil), key[:]...), StoredAt: time.Now().UTC()}
	return s.write(ring)
}

// LoadKey returns the key stored for id. A missing key is ok == false.
func (s *KeyFileStore) LoadKey(id domain.SessionID) (domain.SessionKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.read()
	if err != nil {
		return domain.SessionKey{}, false, err
	}
	defer wipeRing(ring)
	rec, ok := ring[id]
	if !ok {
		return domain.SessionKey{}, false, nil
	}
	if len(rec.Key) != domain.SessionKeySize {
		return domain.SessionKey{}, false, fmt.Errorf("stored key for %s is %d bytes", id, len(rec.Key))
	}
	var key domain.SessionKey
	copy(key[:], rec.Key)
	return key, true, nil
}

// DeleteKey removes the key for id. Deleting an absent key is not an error.
func (s *KeyFileStore) DeleteKey(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, err := s.read()
	if err != nil {
		return err
	}
	defer wipeRing(ring)
	if _, ok := ring[id]; !ok {
		return nil
	}
	delete(ring, id)
	return s.write(ring)
}

func (s *KeyFileStore) path() string {
	if s.Sealed() {
		return filepath.Join(s.dir, sealedKeysFilename)
	}
	return filepath.Join(s.dir, keysFilename)
}

func (s *KeyFileStore) read() (keyring, error) {
	ring := keyring{}
	if !s.Sealed() {
		if _, err := readJSON(s.path(), &ring); err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
		return ring, nil
	}

	b, err := readFile(s.path())
	if err != nil || b == nil {
		return ring, err
	}
	raw, err := openWithPassphrase(s.passphrase, b)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(raw)
	if err := json.Unmarshal(raw, &ring); err != nil {
		return nil, fmt.Errorf("decode keyring: %w", err)
	}
	return ring, nil
}

func (s *KeyFileStore) write(ring keyring) error {
	if !s.Sealed() {
		return writeJSON(s.path(), ring, 0o600)
	}
	raw, err := json.Marshal(ring)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	blob, err := sealWithPassphrase(s.passphrase, raw, s.kdf)
	if err != nil {
		return err
	}
	return writeFile(s.path(), blob, 0o600)
}

func wipeRing(ring keyring) {
	for _, rec := range ring {
		crypto.Wipe(rec.Key)
	}
}

// Compile-time assertion that KeyFileStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyFileStore)(nil)

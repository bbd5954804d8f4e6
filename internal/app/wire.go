package app

import (
	"errors"
	"os"

	"burna/internal/relay"
	identitysvc "burna/internal/services/identity"
	keysvc "burna/internal/services/keys"
	sessionsvc "burna/internal/services/session"
	"burna/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Keys     *keysvc.Service
	Identity *identitysvc.Service
	Sessions *sessionsvc.Manager
	Relay    *relay.HTTP
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if cfg.Home == "" {
		return nil, errors.New("app: home directory is required")
	}
	if cfg.RelayURL == "" {
		return nil, errors.New("app: relay URL is required")
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	// File-based stores
	keyStore := store.NewKeyFileStore(cfg.Home, cfg.Passphrase)
	deviceStore := store.NewIdentityFileStore(cfg.Home)

	// Relay client (uses provided HTTP client)
	rc := relay.NewHTTP(cfg.RelayURL)
	if cfg.HTTP != nil {
		rc.HTTP = cfg.HTTP
	}

	// High-level services
	keys := keysvc.New(keyStore, cfg.Logger)
	ids := identitysvc.New(deviceStore, nil)
	sessions := sessionsvc.New(rc, rc, keys, ids, sessionsvc.WithLogger(cfg.Logger))

	return &Wire{
		Keys:     keys,
		Identity: ids,
		Sessions: sessions,
		Relay:    rc,
	}, nil
}

package app

import (
	"os"
	"path/filepath"
)

// Environment variables consulted when flags are not given.
const (
	EnvHome  = "BURNA_HOME"
	EnvRelay = "BURNA_RELAY"
)

// DefaultRelayURL is used when neither a flag nor BURNA_RELAY names a relay.
const DefaultRelayURL = "http://127.0.0.1:8080"

// DefaultHome returns BURNA_HOME, or ~/.burna.
func DefaultHome() (string, error) {
	if h := os.Getenv(EnvHome); h != "" {
		return h, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".burna"), nil
}

// DefaultRelay returns BURNA_RELAY, or DefaultRelayURL.
func DefaultRelay() string {
	if r := os.Getenv(EnvRelay); r != "" {
		return r
	}
	return DefaultRelayURL
}

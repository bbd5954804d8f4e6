// Package store provides file-based persistence for a device's local state.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk with atomic temp-file writes. All methods
// are concurrency-safe via internal locking. Files live under the user's
// configured home directory and are never shared with the relay.
//
// The package includes stores for:
//   - Session keys (KeyFileStore), optionally sealed with a passphrase
//   - The device's anonymous identity (IdentityFileStore)
package store

// Package keys is the Key Manager: it creates session keys and keeps them in
// device-local storage, scoped by session id.
//
// Key material never leaves the backing domain.KeyStore except through the
// share link produced by the link package. Only fingerprints are logged.
package keys

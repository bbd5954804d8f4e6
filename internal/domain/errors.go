package domain

import "errors"

// Session-level failures abort the operation; per-message failures
// (ErrAuthentication, ErrDecoding) only drop that message.
var (
	// ErrNotFound: the session does not exist, was terminated, or has expired.
	ErrNotFound = errors.New("session not found or no longer available")
	// ErrFull: the session already has maxParticipants members.
	ErrFull = errors.New("session is full")
	// ErrAuthentication: the ciphertext tag did not verify.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrDecoding: the stored ciphertext envelope is malformed.
	ErrDecoding = errors.New("malformed ciphertext envelope")
	// ErrCreation: the store rejected a write.
	ErrCreation = errors.New("store rejected the request")
	// ErrStoreUnavailable: the store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEntropy: the system random source failed. Not retried.
	ErrEntropy = errors.New("random source failure")
	// ErrKeyMissing: no session key is available on this device.
	ErrKeyMissing = errors.New("session key not available on this device")
	// ErrInvalidState: the operation is not allowed in the session's current state.
	ErrInvalidState = errors.New("operation not allowed in current session state")
)

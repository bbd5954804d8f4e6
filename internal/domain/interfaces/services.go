package interfaces

import domaintypes "burna/internal/domain/types"

// KeyManager creates, persists and retrieves session keys on this device.
type KeyManager interface {
	CreateKey() (domaintypes.SessionKey, error)
	StoreKey(id domaintypes.SessionID, key domaintypes.SessionKey) error
	LoadKey(id domaintypes.SessionID) (domaintypes.SessionKey, bool, error)
	EraseKey(id domaintypes.SessionID) error
}

// IdentityService hands out the device's anonymous identity, creating it on
// first use.
type IdentityService interface {
	AnonymousID() (domaintypes.AnonymousID, error)
}

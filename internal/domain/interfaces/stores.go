package interfaces

import domaintypes "burna/internal/domain/types"

// KeyStore persists session keys on the local device only.
type KeyStore interface {
	SaveKey(id domaintypes.SessionID, key domaintypes.SessionKey) error
	// LoadKey reports ok == false when no key is stored; that is not an error.
	LoadKey(id domaintypes.SessionID) (key domaintypes.SessionKey, ok bool, err error)
	// DeleteKey is idempotent.
	DeleteKey(id domaintypes.SessionID) error
}

// DeviceStore persists the device's anonymous identity.
type DeviceStore interface {
	SaveDevice(device domaintypes.Device) error
	LoadDevice() (domaintypes.Device, bool, error)
}

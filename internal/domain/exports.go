package domain

import (
	interfaces "burna/internal/domain/interfaces"
	types "burna/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	SessionID        = types.SessionID
	AnonymousID      = types.AnonymousID
	MessageID        = types.MessageID
	Fingerprint      = types.Fingerprint
	SessionKey       = types.SessionKey
	Chat             = types.Chat
	Participant      = types.Participant
	MessageKind      = types.MessageKind
	Message          = types.Message
	NewMessage       = types.NewMessage
	DecryptedMessage = types.DecryptedMessage
	EventType        = types.EventType
	Event            = types.Event
	Device           = types.Device
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore        = interfaces.KeyStore
	DeviceStore     = interfaces.DeviceStore
	Backend         = interfaces.Backend
	Subscriber      = interfaces.Subscriber
	Subscription    = interfaces.Subscription
	KeyManager      = interfaces.KeyManager
	IdentityService = interfaces.IdentityService
)

// Re-exported constants.
const (
	SessionKeySize  = types.SessionKeySize
	KindText        = types.KindText
	KindImage       = types.KindImage
	EventMessage    = types.EventMessage
	EventTerminated = types.EventTerminated
)

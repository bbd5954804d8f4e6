package types

// SessionID is the opaque, relay-assigned identifier of a chat session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// AnonymousID is the per-device pseudonym used as sender and participant id.
type AnonymousID string

// String returns the string form of the anonymous identifier.
func (id AnonymousID) String() string { return string(id) }

// MessageID identifies a stored message row.
type MessageID string

// String returns the string form of the message identifier.
func (id MessageID) String() string { return string(id) }

// Fingerprint is a short identifier for keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

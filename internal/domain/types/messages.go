package types

import "time"

// MessageKind tells the receiver how to interpret a decrypted payload.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool { return k == KindText || k == KindImage }

// Message is a stored message row. Ciphertext is the sealed payload produced
// by the crypto package; plaintext never appears here.
type Message struct {
	ID         MessageID   `json:"id"`
	SessionID  SessionID   `json:"session_id"`
	Ciphertext string      `json:"ciphertext"`
	Kind       MessageKind `json:"kind"`
	Sender     AnonymousID `json:"sender_anonymous_id"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Expiry returns the instant after which the message is no longer shown.
func (m Message) Expiry() time.Time { return m.ExpiresAt }

// NewMessage is what a sender hands to the relay; the relay assigns ID and
// CreatedAt.
type NewMessage struct {
	SessionID  SessionID   `json:"session_id"`
	Ciphertext string      `json:"ciphertext"`
	Kind       MessageKind `json:"kind"`
	Sender     AnonymousID `json:"sender_anonymous_id"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// DecryptedMessage is the local view of a message. It is never persisted.
type DecryptedMessage struct {
	ID        MessageID
	Kind      MessageKind
	Text      string
	Image     string // data URI, only for KindImage
	Sender    AnonymousID
	Timestamp time.Time
	ExpiresAt time.Time
	Mine      bool
}

// Expiry returns the instant after which the message is no longer shown.
func (m DecryptedMessage) Expiry() time.Time { return m.ExpiresAt }

// Key returns the identifier used for de-duplication.
func (m DecryptedMessage) Key() MessageID { return m.ID }

// EventType discriminates realtime frames.
type EventType string

const (
	EventMessage    EventType = "message"
	EventTerminated EventType = "terminated"
)

// Event is one frame on the realtime channel of a session.
type Event struct {
	Type      EventType `json:"type"`
	SessionID SessionID `json:"session_id"`
	Message   *Message  `json:"message,omitempty"`
}

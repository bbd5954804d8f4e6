package types

import "time"

// Chat is the relay's session record. MaxParticipants and MessageTTLSeconds
// never change after creation; Terminated only ever goes from false to true.
type Chat struct {
	ID                SessionID `json:"id"`
	MaxParticipants   int       `json:"max_participants"`
	MessageTTLSeconds int       `json:"message_ttl_seconds"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	Terminated        bool      `json:"terminated"`
}

// Active reports whether the chat is usable at now. A chat past its own
// expiry is treated exactly like a terminated one.
func (c Chat) Active(now time.Time) bool {
	return !c.Terminated && now.Before(c.ExpiresAt)
}

// MessageTTL returns the per-message lifetime as a duration.
func (c Chat) MessageTTL() time.Duration {
	return time.Duration(c.MessageTTLSeconds) * time.Second
}

// Participant records that a device has joined a session.
type Participant struct {
	SessionID   SessionID   `json:"session_id"`
	AnonymousID AnonymousID `json:"anonymous_id"`
	JoinedAt    time.Time   `json:"joined_at"`
}

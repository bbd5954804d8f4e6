package types

import "time"

// Device is the local, persisted pseudonymous identity of this installation.
type Device struct {
	AnonymousID AnonymousID `json:"anonymous_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

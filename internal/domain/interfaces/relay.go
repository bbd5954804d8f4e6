package interfaces

import (
	"context"

	domaintypes "burna/internal/domain/types"
)

// Backend is the persistent store as seen by the core. Implementations only
// ever see ciphertext.
type Backend interface {
	CreateSession(ctx context.Context, maxParticipants, messageTTLSeconds int) (domaintypes.Chat, error)
	// GetSession returns only chats that are neither terminated nor expired.
	GetSession(ctx context.Context, id domaintypes.SessionID) (domaintypes.Chat, error)
	CountParticipants(ctx context.Context, id domaintypes.SessionID) (int, error)
	// JoinParticipant inserts the participant iff it is already a member or
	// the session is below capacity. Repeated calls are idempotent.
	JoinParticipant(ctx context.Context, id domaintypes.SessionID, anon domaintypes.AnonymousID) error
	InsertMessage(ctx context.Context, msg domaintypes.NewMessage) (domaintypes.Message, error)
	// ListMessages returns the session's rows in ascending creation order.
	ListMessages(ctx context.Context, id domaintypes.SessionID) ([]domaintypes.Message, error)
	// TerminateSession is idempotent.
	TerminateSession(ctx context.Context, id domaintypes.SessionID) error
}

// Subscriber opens realtime subscriptions filtered to one session.
type Subscriber interface {
	Subscribe(ctx context.Context, id domaintypes.SessionID) (Subscription, error)
}

// Subscription delivers events in insertion order, at least once. Events is
// closed when the subscription ends; Err then reports why (nil after Close).
type Subscription interface {
	Events() <-chan domaintypes.Event
	Err() error
	Close() error
}

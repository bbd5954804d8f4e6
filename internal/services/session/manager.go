package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"burna/internal/crypto"
	"burna/internal/domain"
	"burna/internal/lifecycle"
)

// Manager creates sessions and hands out per-session contexts.
type Manager struct {
	backend  domain.Backend
	sub      domain.Subscriber
	keys     domain.KeyManager
	identity domain.IdentityService

	clock         clock.Clock
	log           zerolog.Logger
	pruneInterval time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for expiry and pruning.
func WithClock(c clock.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithPruneInterval sets how often WatchExpiry prunes the timeline.
func WithPruneInterval(d time.Duration) Option { return func(m *Manager) { m.pruneInterval = d } }

// New constructs a Manager over the given backend, realtime subscriber,
// key manager and device identity.
func New(
	backend domain.Backend,
	sub domain.Subscriber,
	keys domain.KeyManager,
	identity domain.IdentityService,
	opts ...Option,
) *Manager {
	m := &Manager{
		backend:       backend,
		sub:           sub,
		keys:          keys,
		identity:      identity,
		clock:         clock.New(),
		log:           zerolog.Nop(),
		pruneInterval: lifecycle.DefaultPruneInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create inserts a new session and generates and stores its key. The key is
// returned so the caller can share it out of band.
func (m *Manager) Create(ctx context.Context, maxParticipants, ttlSeconds int) (domain.Chat, domain.SessionKey, error) {
	if maxParticipants < 1 {
		return domain.Chat{}, domain.SessionKey{}, fmt.Errorf("%w: max participants must be positive", domain.ErrCreation)
	}
	if ttlSeconds < 1 {
		return domain.Chat{}, domain.SessionKey{}, fmt.Errorf("%w: message ttl must be positive", domain.ErrCreation)
	}

	// Generate first so an entropy failure never leaves an orphan session.
	key, err := m.keys.CreateKey()
	if err != nil {
		return domain.Chat{}, domain.SessionKey{}, err
	}

	chat, err := m.backend.CreateSession(ctx, maxParticipants, ttlSeconds)
	if err != nil {
		crypto.WipeKey(&key)
		if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrCreation) {
			return domain.Chat{}, domain.SessionKey{}, fmt.Errorf("create session: %w", err)
		}
		return domain.Chat{}, domain.SessionKey{}, fmt.Errorf("create session: %w: %w", domain.ErrCreation, err)
	}

	if err := m.keys.StoreKey(chat.ID, key); err != nil {
		crypto.WipeKey(&key)
		if terr := m.backend.TerminateSession(ctx, chat.ID); terr != nil {
			m.log.Error().Err(terr).Str("session_id", chat.ID.String()).Msg("terminating session after key store failure")
		}
		return domain.Chat{}, domain.SessionKey{}, err
	}
	m.log.Info().
		Str("session_id", chat.ID.String()).
		Int("max_participants", chat.MaxParticipants).
		Int("message_ttl_seconds", chat.MessageTTLSeconds).
		Msg("session created")
	return chat, key, nil
}

// Session returns an uninitialized context for id. Call Join on it before
// any message operation.
func (m *Manager) Session(id domain.SessionID) *Session {
	return &Session{
		id:       id,
		m:        m,
		log:      m.log.With().Str("session_id", id.String()).Logger(),
		timeline: lifecycle.NewTimeline(),
		done:     make(chan struct{}),
	}
}

// Join is Session(id).Join(ctx, opts); on failure it returns the error only.
func (m *Manager) Join(ctx context.Context, id domain.SessionID, opts JoinOptions) (*Session, error) {
	s := m.Session(id)
	if err := s.Join(ctx, opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Terminate ends a session by id without joining it and erases the local
// key. Terminating a session the relay no longer knows is not an error.
func (m *Manager) Terminate(ctx context.Context, id domain.SessionID) error {
	if err := m.backend.TerminateSession(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("terminate session: %w", err)
	}
	if err := m.keys.EraseKey(id); err != nil {
		return err
	}
	m.log.Info().Str("session_id", id.String()).Msg("session terminated")
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"burna/internal/domain"
	"burna/internal/metrics"
	"burna/internal/models"
)

// Publisher receives every event the store emits.
type Publisher interface {
	Publish(ev domain.Event)
}

// Limits bounds what clients may ask for when creating a session.
type Limits struct {
	SessionLifetime      time.Duration
	MaxParticipants      int
	MaxMessageTTLSeconds int
}

// SessionService stores chats in db and publishes to pub.
type SessionService struct {
	db     *gorm.DB
	pub    Publisher
	limits Limits
	clock  clock.Clock
	log    zerolog.Logger

	// mu orders message inserts, terminations and their events.
	mu  sync.Mutex
	seq uint64
}

// Option configures a SessionService.
type Option func(*SessionService)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option { return func(s *SessionService) { s.clock = c } }

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option { return func(s *SessionService) { s.log = l } }

// NewSessionService returns a store over an already migrated db.
func NewSessionService(db *gorm.DB, pub Publisher, limits Limits, opts ...Option) (*SessionService, error) {
	s := &SessionService{db: db, pub: pub, limits: limits, clock: clock.New(), log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "store").Logger()

	if err := db.Model(&models.Message{}).Select("COALESCE(MAX(seq), 0)").Row().Scan(&s.seq); err != nil {
		return nil, fmt.Errorf("service: read message sequence: %w", err)
	}
	return s, nil
}

func (s *SessionService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *SessionService) CreateSession(ctx context.Context, maxParticipants, messageTTLSeconds int) (domain.Chat, error) {
	if maxParticipants < 1 || (s.limits.MaxParticipants > 0 && maxParticipants > s.limits.MaxParticipants) {
		return domain.Chat{}, fmt.Errorf("%w: max participants %d out of range", domain.ErrCreation, maxParticipants)
	}
	if messageTTLSeconds < 1 || (s.limits.MaxMessageTTLSeconds > 0 && messageTTLSeconds > s.limits.MaxMessageTTLSeconds) {
		return domain.Chat{}, fmt.Errorf("%w: message ttl %ds out of range", domain.ErrCreation, messageTTLSeconds)
	}
	now := s.now()
	row := models.Session{
		ID:                uuid.NewString(),
		MaxParticipants:   maxParticipants,
		MessageTTLSeconds: messageTTLSeconds,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.limits.SessionLifetime),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Chat{}, s.storeErr("create session", err)
	}
	metrics.SessionsCreatedTotal.Inc()
	s.log.Info().Str("session_id", row.ID).Int("max_participants", maxParticipants).
		Int("message_ttl_seconds", messageTTLSeconds).Msg("session created")
	return toChat(row), nil
}

// activeSession loads id and fails with ErrNotFound unless it is live.
func (s *SessionService) activeSession(tx *gorm.DB, id domain.SessionID, lock bool) (models.Session, error) {
	var row models.Session
	if _, err := uuid.Parse(id.String()); err != nil {
		return row, domain.ErrNotFound
	}
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, domain.ErrNotFound
		}
		return row, s.storeErr("load session", err)
	}
	if !toChat(row).Active(s.now()) {
		return row, domain.ErrNotFound
	}
	return row, nil
}

func (s *SessionService) GetSession(ctx context.Context, id domain.SessionID) (domain.Chat, error) {
	row, err := s.activeSession(s.db.WithContext(ctx), id, false)
	if err != nil {
		return domain.Chat{}, err
	}
	return toChat(row), nil
}

func (s *SessionService) CountParticipants(ctx context.Context, id domain.SessionID) (int, error) {
	tx := s.db.WithContext(ctx)
	if _, err := s.activeSession(tx, id, false); err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Model(&models.Participant{}).Where("session_id = ?", id.String()).Count(&n).Error; err != nil {
		return 0, s.storeErr("count participants", err)
	}
	return int(n), nil
}

// JoinParticipant admits anon in a single transaction holding the session
// row lock.
func (s *SessionService) JoinParticipant(ctx context.Context, id domain.SessionID, anon domain.AnonymousID) error {
	if anon == "" {
		return fmt.Errorf("%w: empty anonymous id", domain.ErrCreation)
	}
	outcome := "joined"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.activeSession(tx, id, true)
		if err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.Participant{}).
			Where("session_id = ? AND anonymous_id = ?", row.ID, anon.String()).
			Count(&existing).Error; err != nil {
			return s.storeErr("lookup participant", err)
		}
		if existing > 0 {
			outcome = "rejoined"
			return nil
		}
		var n int64
		if err := tx.Model(&models.Participant{}).Where("session_id = ?", row.ID).Count(&n).Error; err != nil {
			return s.storeErr("count participants", err)
		}
		if int(n) >= row.MaxParticipants {
			return domain.ErrFull
		}
		p := models.Participant{SessionID: row.ID, AnonymousID: anon.String(), JoinedAt: s.now()}
		if err := tx.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				outcome = "rejoined"
				return nil
			}
			return s.storeErr("insert participant", err)
		}
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrFull):
		outcome = "full"
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.JoinsTotal.WithLabelValues(outcome).Inc()
	if err == nil {
		s.log.Debug().Str("session_id", id.String()).Str("outcome", outcome).Msg("participant join")
	}
	return err
}

// InsertMessage stores a sealed message and publishes it. The stored expiry
// is the sender's value when it lies within the session TTL, otherwise
// createdAt + TTL.
func (s *SessionService) InsertMessage(ctx context.Context, nm domain.NewMessage) (domain.Message, error) {
	if !nm.Kind.Valid() {
		return domain.Message{}, fmt.Errorf("%w: unknown kind %q", domain.ErrCreation, nm.Kind)
	}
	if nm.Ciphertext == "" || nm.Sender == "" {
		return domain.Message{}, fmt.Errorf("%w: ciphertext and sender are required", domain.ErrCreation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.db.WithContext(ctx)
	sess, err := s.activeSession(tx, nm.SessionID, false)
	if err != nil {
		return domain.Message{}, err
	}
	now := s.now()
	limit := now.Add(time.Duration(sess.MessageTTLSeconds) * time.Second)
	expires := nm.ExpiresAt.UTC()
	if !expires.After(now) || expires.After(limit) {
		expires = limit
	}
	row := models.Message{
		ID:                uuid.NewString(),
		Seq:               s.seq + 1,
		SessionID:         sess.ID,
		Ciphertext:        nm.Ciphertext,
		Kind:              string(nm.Kind),
		SenderAnonymousID: nm.Sender.String(),
		CreatedAt:         now,
		ExpiresAt:         expires,
	}
	if err := tx.Create(&row).Error; err != nil {
		return domain.Message{}, s.storeErr("insert message", err)
	}
	s.seq = row.Seq
	metrics.MessagesTotal.WithLabelValues(row.Kind).Inc()

	msg := toMessage(row)
	s.pub.Publish(domain.Event{Type: domain.EventMessage, SessionID: msg.SessionID, Message: &msg})
	return msg, nil
}

// ListMessages returns the unexpired messages of an active session in
// storage order.
func (s *SessionService) ListMessages(ctx context.Context, id domain.SessionID) ([]domain.Message, error) {
	tx := s.db.WithContext(ctx)
	if _, err := s.activeSession(tx, id, false); err != nil {
		return nil, err
	}
	var rows []models.Message
	if err := tx.Where("session_id = ? AND expires_at > ?", id.String(), s.now()).
		Order("seq asc").Find(&rows).Error; err != nil {
		return nil, s.storeErr("list messages", err)
	}
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, toMessage(r))
	}
	return out, nil
}

// TerminateSession marks id terminated and publishes a terminated event.
// Terminating an already terminated or expired session succeeds; only an
// unknown id is ErrNotFound.
func (s *SessionService) TerminateSession(ctx context.Context, id domain.SessionID) error {
	if _, err := uuid.Parse(id.String()); err != nil {
		return domain.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND terminated = ?", id.String(), false).
		Update("terminated", true)
	if res.Error != nil {
		return s.storeErr("terminate session", res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id.String()).Count(&n).Error; err != nil {
			return s.storeErr("terminate session", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	}
	metrics.SessionsTerminatedTotal.Inc()
	s.log.Info().Str("session_id", id.String()).Msg("session terminated")
	s.pub.Publish(domain.Event{Type: domain.EventTerminated, SessionID: id})
	return nil
}

// storeErr wraps a database failure as ErrStoreUnavailable. Context
// cancellation is passed through.
func (s *SessionService) storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.log.Error().Err(err).Str("op", op).Msg("database")
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

func toChat(r models.Session) domain.Chat {
	return domain.Chat{
		ID:                domain.SessionID(r.ID),
		MaxParticipants:   r.MaxParticipants,
		MessageTTLSeconds: r.MessageTTLSeconds,
		CreatedAt:         r.CreatedAt.UTC(),
		ExpiresAt:         r.ExpiresAt.UTC(),
		Terminated:        r.Terminated,
	}
}

func toMessage(r models.Message) domain.Message {
	return domain.Message{
		ID:         domain.MessageID(r.ID),
		SessionID:  domain.SessionID(r.SessionID),
		Ciphertext: r.Ciphertext,
		Kind:       domain.MessageKind(r.Kind),
		Sender:     domain.AnonymousID(r.SenderAnonymousID),
		CreatedAt:  r.CreatedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
	}
}

// Compile-time assertion that SessionService implements domain.Backend.
var _ domain.Backend = (*SessionService)(nil)

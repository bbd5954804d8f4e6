package session_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"burna/internal/domain"
)

// memBackend is an in-process domain.Backend and domain.Subscriber with the
// same semantics as the relay: atomic join, active-only lookups and
// insert-then-publish in order.
type memBackend struct {
	mu    sync.Mutex
	seq   int
	chats map[domain.SessionID]*domain.Chat
	parts map[domain.SessionID]map[domain.AnonymousID]time.Time
	msgs  map[domain.SessionID][]domain.Message
	subs  map[domain.SessionID][]*memSub
	down  bool
	dupes bool
}

func newMemBackend() *memBackend {
	return &memBackend{
		chats: map[domain.SessionID]*domain.Chat{},
		parts: map[domain.SessionID]map[domain.AnonymousID]time.Time{},
		msgs:  map[domain.SessionID][]domain.Message{},
		subs:  map[domain.SessionID][]*memSub{},
	}
}

func (b *memBackend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%04d", prefix, b.seq)
}

func (b *memBackend) activeChat(id domain.SessionID) (*domain.Chat, error) {
	if b.down {
		return nil, domain.ErrStoreUnavailable
	}
	c, ok := b.chats[id]
	if !ok || !c.Active(time.Now()) {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (b *memBackend) CreateSession(_ context.Context, maxParticipants, ttl int) (domain.Chat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down {
		return domain.Chat{}, domain.ErrStoreUnavailable
	}
	now := time.Now().UTC()
	c := &domain.Chat{
		ID:                domain.SessionID(b.nextID("chat")),
		MaxParticipants:   maxParticipants,
		MessageTTLSeconds: ttl,
		CreatedAt:         now,
		ExpiresAt:         now.Add(24 * time.Hour),
	}
	b.chats[c.ID] = c
	b.parts[c.ID] = map[domain.AnonymousID]time.Time{}
	return *c, nil
}

func (b *memBackend) GetSession(_ context.Context, id domain.SessionID) (domain.Chat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.activeChat(id)
	if err != nil {
		return domain.Chat{}, err
	}
	return *c, nil
}

func (b *memBackend) CountParticipants(_ context.Context, id domain.SessionID) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.activeChat(id); err != nil {
		return 0, err
	}
	return len(b.parts[id]), nil
}

func (b *memBackend) JoinParticipant(_ context.Context, id domain.SessionID, anon domain.AnonymousID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.activeChat(id)
	if err != nil {
		return err
	}
	if _, ok := b.parts[id][anon]; ok {
		return nil
	}
	if len(b.parts[id]) >= c.MaxParticipants {
		return domain.ErrFull
	}
	b.parts[id][anon] = time.Now()
	return nil
}

func (b *memBackend) InsertMessage(_ context.Context, nm domain.NewMessage) (domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.activeChat(nm.SessionID); err != nil {
		return domain.Message{}, err
	}
	m := domain.Message{
		ID:         domain.MessageID(b.nextID("msg")),
		SessionID:  nm.SessionID,
		Ciphertext: nm.Ciphertext,
		Kind:       nm.Kind,
		Sender:     nm.Sender,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  nm.ExpiresAt,
	}
	b.msgs[nm.SessionID] = append(b.msgs[nm.SessionID], m)
	ev := domain.Event{Type: domain.EventMessage, SessionID: m.SessionID, Message: &m}
	b.publish(m.SessionID, ev)
	if b.dupes {
		b.publish(m.SessionID, ev)
	}
	return m, nil
}

func (b *memBackend) ListMessages(_ context.Context, id domain.SessionID) ([]domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.activeChat(id); err != nil {
		return nil, err
	}
	return append([]domain.Message(nil), b.msgs[id]...), nil
}

func (b *memBackend) TerminateSession(_ context.Context, id domain.SessionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down {
		return domain.ErrStoreUnavailable
	}
	c, ok := b.chats[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !c.Terminated {
		c.Terminated = true
		b.publish(id, domain.Event{Type: domain.EventTerminated, SessionID: id})
	}
	return nil
}

// rawInsert stores a row without validation or publishing.
func (b *memBackend) rawInsert(m domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs[m.SessionID] = append(b.msgs[m.SessionID], m)
}

// inject delivers ev to subscribers without storing anything.
func (b *memBackend) inject(ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publish(ev.SessionID, ev)
}

func (b *memBackend) setDown(down bool) {
	b.mu.Lock()
	b.down = down
	b.mu.Unlock()
}

func (b *memBackend) publish(id domain.SessionID, ev domain.Event) {
	for _, s := range b.subs[id] {
		s.deliver(ev)
	}
}

func (b *memBackend) Subscribe(ctx context.Context, id domain.SessionID) (domain.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.activeChat(id); err != nil {
		return nil, err
	}
	s := &memSub{ch: make(chan domain.Event, 64)}
	b.subs[id] = append(b.subs[id], s)
	return s, nil
}

type memSub struct {
	mu     sync.Mutex
	ch     chan domain.Event
	closed bool
}

func (s *memSub) deliver(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func (s *memSub) Events() <-chan domain.Event { return s.ch }
func (s *memSub) Err() error                  { return nil }

func (s *memSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

var (
	_ domain.Backend    = (*memBackend)(nil)
	_ domain.Subscriber = (*memBackend)(nil)
)

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"burna/internal/crypto"
	"burna/internal/domain"
	"burna/internal/lifecycle"
	"burna/internal/link"
)

// JoinOptions controls how Join resolves the session key.
type JoinOptions struct {
	// Key is the encoded key from a chat link fragment. When set it takes
	// precedence and is stored on the device once the join succeeds.
	Key string
	// AllowKeylessJoin creates a fresh local key when none is available
	// instead of failing with domain.ErrKeyMissing. That key is unrelated to
	// the creator's, so nothing sent by others will decrypt.
	AllowKeylessJoin bool
}

// Session is one device's context for one chat session.
type Session struct {
	id       domain.SessionID
	m        *Manager
	log      zerolog.Logger
	timeline *lifecycle.Timeline

	mu    sync.Mutex
	state State
	chat  domain.Chat
	key   domain.SessionKey
	anon  domain.AnonymousID
	live  *liveSub

	done     chan struct{}
	doneOnce sync.Once
}

// liveSub tracks the reader goroutine of an active subscription.
type liveSub struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// ID returns the session identifier.
func (s *Session) ID() domain.SessionID { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Chat returns the session record fetched at join time.
func (s *Session) Chat() domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

// AnonymousID returns the device identity this session joined with.
func (s *Session) AnonymousID() domain.AnonymousID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anon
}

// Fingerprint returns the fingerprint of the session key, or "" when no key
// is held.
func (s *Session) Fingerprint() domain.Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key.IsZero() {
		return ""
	}
	return crypto.Fingerprint(s.key)
}

// Link returns a shareable link carrying the session key in its fragment.
func (s *Session) Link(base string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return link.Format(base, s.id, s.key)
}

// Timeline returns the in-memory view fed by history and live delivery.
func (s *Session) Timeline() *lifecycle.Timeline { return s.timeline }

// Visible returns the timeline pruned at the current time.
func (s *Session) Visible() []domain.DecryptedMessage {
	return lifecycle.Prune(s.timeline.Messages(), s.m.clock.Now())
}

// WatchExpiry prunes the timeline on the manager's clock until ctx is done
// or stop is called.
func (s *Session) WatchExpiry(ctx context.Context, onExpire func([]domain.DecryptedMessage)) (stop func()) {
	return s.timeline.Watch(ctx, s.m.clock, s.m.pruneInterval, onExpire)
}

// Done is closed once the session reaches Terminated, whether locally or
// because another participant terminated it.
func (s *Session) Done() <-chan struct{} { return s.done }

// Join moves the session from Uninitialized through Joining to Active. Any
// failure leaves it Invalid; an Invalid session cannot be rejoined.
func (s *Session) Join(ctx context.Context, opts JoinOptions) (err error) {
	s.mu.Lock()
	if s.state != Uninitialized {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: join while %s", domain.ErrInvalidState, st)
	}
	s.state = Joining
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.state = Invalid
			crypto.WipeKey(&s.key)
			s.log.Warn().Err(err).Msg("join failed")
			return
		}
		s.state = Active
	}()

	chat, err := s.m.backend.GetSession(ctx, s.id)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if !chat.Active(s.m.clock.Now()) {
		return fmt.Errorf("join: %w", domain.ErrNotFound)
	}

	key, fresh, err := s.resolveKey(opts)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	anon, err := s.m.identity.AnonymousID()
	if err != nil {
		crypto.WipeKey(&key)
		return fmt.Errorf("join: %w", err)
	}
	if err := s.m.backend.JoinParticipant(ctx, s.id, anon); err != nil {
		crypto.WipeKey(&key)
		return fmt.Errorf("join: %w", err)
	}
	// A key from the link or a keyless join is kept only once the device
	// holds a seat in the session.
	if fresh {
		if err := s.m.keys.StoreKey(s.id, key); err != nil {
			crypto.WipeKey(&key)
			return fmt.Errorf("join: %w", err)
		}
	}

	s.mu.Lock()
	s.chat, s.key, s.anon = chat, key, anon
	s.mu.Unlock()
	s.log.Info().Str("fingerprint", crypto.Fingerprint(key).String()).Msg("joined session")
	return nil
}

// resolveKey prefers a key from the link, then a stored key, then (if
// allowed) a freshly created one. fresh reports a key not yet in the store.
func (s *Session) resolveKey(opts JoinOptions) (key domain.SessionKey, fresh bool, err error) {
	if opts.Key != "" {
		key, err = crypto.DecodeKey(opts.Key)
		if err != nil {
			return domain.SessionKey{}, false, err
		}
		return key, true, nil
	}

	key, ok, err := s.m.keys.LoadKey(s.id)
	if err != nil {
		return domain.SessionKey{}, false, err
	}
	if ok {
		return key, false, nil
	}
	if !opts.AllowKeylessJoin {
		return domain.SessionKey{}, false, domain.ErrKeyMissing
	}

	key, err = s.m.keys.CreateKey()
	if err != nil {
		return domain.SessionKey{}, false, err
	}
	s.log.Warn().Msg("no session key on this device, created an unrelated one; messages from others will not decrypt")
	return key, true, nil
}

// active returns a snapshot of the fields message operations need, or
// domain.ErrInvalidState unless the session is Active. The caller owns the
// returned key copy.
func (s *Session) active(op string) (domain.Chat, domain.SessionKey, domain.AnonymousID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return domain.Chat{}, domain.SessionKey{}, "", fmt.Errorf("%w: %s while %s", domain.ErrInvalidState, op, s.state)
	}
	return s.chat, s.key, s.anon, nil
}

// LoadHistory fetches every stored message in creation order and decrypts
// it. Messages that fail to decrypt are logged and left out.
func (s *Session) LoadHistory(ctx context.Context) ([]domain.DecryptedMessage, error) {
	_, key, anon, err := s.active("load history")
	if err != nil {
		return nil, err
	}
	defer crypto.WipeKey(&key)

	rows, err := s.m.backend.ListMessages(ctx, s.id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]domain.DecryptedMessage, 0, len(rows))
	for _, row := range rows {
		msg, err := s.open(key, anon, row)
		if err != nil {
			s.log.Warn().Err(err).Str("message_id", row.ID.String()).Msg("dropping undecryptable message")
			continue
		}
		out = append(out, msg)
	}
	s.timeline.Add(out...)
	return out, nil
}

// Send seals payload under the session key and inserts it. Failures are
// returned as-is; there is no retry.
func (s *Session) Send(ctx context.Context, kind domain.MessageKind, payload []byte) (domain.Message, error) {
	chat, key, anon, err := s.active("send")
	if err != nil {
		return domain.Message{}, err
	}
	defer crypto.WipeKey(&key)
	if !kind.Valid() {
		return domain.Message{}, fmt.Errorf("send: unknown message kind %q", kind)
	}

	sealed, err := crypto.Seal(key, payload, associatedData(s.id, kind))
	if err != nil {
		return domain.Message{}, fmt.Errorf("send: %w", err)
	}
	now := s.m.clock.Now().UTC()
	row, err := s.m.backend.InsertMessage(ctx, domain.NewMessage{
		SessionID:  s.id,
		Ciphertext: sealed,
		Kind:       kind,
		Sender:     anon,
		ExpiresAt:  lifecycle.ExpiryOf(now, chat.MessageTTLSeconds),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("send: %w", err)
	}

	view := domain.DecryptedMessage{
		ID:        row.ID,
		Kind:      kind,
		Sender:    anon,
		Timestamp: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		Mine:      true,
	}
	if kind == domain.KindText {
		view.Text = string(payload)
	} else {
		view.Image = string(payload)
	}
	s.timeline.Add(view)
	return row, nil
}

// ParticipantCount returns the number of devices that have joined.
func (s *Session) ParticipantCount(ctx context.Context) (int, error) {
	if _, _, _, err := s.active("count participants"); err != nil {
		return 0, err
	}
	n, err := s.m.backend.CountParticipants(ctx, s.id)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// Subscribe attaches to the realtime channel for this session. Each new
// message is decrypted and passed to onMessage on a single reader goroutine
// in arrival order; duplicates and messages already loaded from history are
// skipped, and undecryptable ones are logged and dropped. onMessage must not
// call Unsubscribe or Terminate.
func (s *Session) Subscribe(ctx context.Context, onMessage func(domain.DecryptedMessage)) error {
	subCtx, cancel := context.WithCancel(ctx)
	live := &liveSub{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.state != Active {
		st := s.state
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("%w: subscribe while %s", domain.ErrInvalidState, st)
	}
	if s.live != nil {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("%w: already subscribed", domain.ErrInvalidState)
	}
	s.live = live
	key, anon := s.key, s.anon
	s.mu.Unlock()

	sub, err := s.m.sub.Subscribe(subCtx, s.id)
	if err != nil {
		crypto.WipeKey(&key)
		cancel()
		close(live.done)
		s.mu.Lock()
		if s.live == live {
			s.live = nil
		}
		s.mu.Unlock()
		return fmt.Errorf("subscribe: %w", err)
	}

	go s.read(subCtx, live, sub, key, anon, onMessage)
	s.log.Debug().Msg("subscribed")
	return nil
}

// Attach subscribes and then loads history, so a message sent while the two
// are in flight is not lost. onMessage receives the history in order, then
// every live message not already in it. It shares Subscribe's rules for
// onMessage.
func (s *Session) Attach(ctx context.Context, onMessage func(domain.DecryptedMessage)) error {
	var (
		mu      sync.Mutex
		ready   bool
		pending []domain.DecryptedMessage
	)
	if onMessage == nil {
		onMessage = func(domain.DecryptedMessage) {}
	}
	deliver := func(m domain.DecryptedMessage) {
		mu.Lock()
		defer mu.Unlock()
		if !ready {
			pending = append(pending, m)
			return
		}
		onMessage(m)
	}
	if err := s.Subscribe(ctx, deliver); err != nil {
		return err
	}
	hist, err := s.LoadHistory(ctx)
	if err != nil {
		_ = s.Unsubscribe()
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	seen := make(map[domain.MessageID]struct{}, len(hist))
	for _, m := range hist {
		seen[m.Key()] = struct{}{}
		onMessage(m)
	}
	for _, m := range pending {
		if _, dup := seen[m.Key()]; !dup {
			onMessage(m)
		}
	}
	pending, ready = nil, true
	return nil
}

func (s *Session) read(
	ctx context.Context,
	live *liveSub,
	sub domain.Subscription,
	key domain.SessionKey,
	anon domain.AnonymousID,
	onMessage func(domain.DecryptedMessage),
) {
	defer close(live.done)
	defer live.cancel()
	defer crypto.WipeKey(&key)
	defer func() {
		if err := sub.Close(); err != nil {
			s.log.Debug().Err(err).Msg("closing subscription")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil && ctx.Err() == nil {
					s.log.Warn().Err(err).Msg("realtime subscription ended")
				}
				return
			}
			switch ev.Type {
			case domain.EventMessage:
				if ev.Message == nil {
					continue
				}
				msg, err := s.open(key, anon, *ev.Message)
				if err != nil {
					s.log.Warn().Err(err).Str("message_id", ev.Message.ID.String()).Msg("dropping undecryptable message")
					continue
				}
				for _, m := range s.timeline.Add(msg) {
					if ctx.Err() != nil {
						return
					}
					if onMessage != nil {
						onMessage(m)
					}
				}
			case domain.EventTerminated:
				s.terminatedRemotely()
				return
			}
		}
	}
}

// Unsubscribe tears down the realtime subscription. Once it returns no
// further callbacks fire. It is a no-op when not subscribed and does not
// affect the session or other participants.
func (s *Session) Unsubscribe() error {
	s.mu.Lock()
	live := s.live
	s.live = nil
	s.mu.Unlock()
	if live == nil {
		return nil
	}
	live.cancel()
	<-live.done
	s.log.Debug().Msg("unsubscribed")
	return nil
}

// Terminate marks the session terminated for everyone, erases the local key
// and unsubscribes. Terminating an already terminated session is a no-op.
func (s *Session) Terminate(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Terminating, Terminated:
		s.mu.Unlock()
		return nil
	case Active:
		s.state = Terminating
		s.mu.Unlock()
	default:
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: terminate while %s", domain.ErrInvalidState, st)
	}

	if err := s.m.backend.TerminateSession(ctx, s.id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.mu.Lock()
		if s.state == Terminating {
			s.state = Active
		}
		s.mu.Unlock()
		return fmt.Errorf("terminate: %w", err)
	}

	_ = s.Unsubscribe()
	eraseErr := s.m.keys.EraseKey(s.id)

	s.mu.Lock()
	s.state = Terminated
	crypto.WipeKey(&s.key)
	s.mu.Unlock()
	s.closeDone()

	if eraseErr != nil {
		return fmt.Errorf("terminate: %w", eraseErr)
	}
	s.log.Info().Msg("session terminated")
	return nil
}

// terminatedRemotely runs on the reader goroutine when another participant
// terminates the session.
func (s *Session) terminatedRemotely() {
	s.mu.Lock()
	if s.state == Terminated {
		s.mu.Unlock()
		return
	}
	s.state = Terminated
	s.live = nil
	crypto.WipeKey(&s.key)
	s.mu.Unlock()

	if err := s.m.keys.EraseKey(s.id); err != nil {
		s.log.Error().Err(err).Msg("erasing key after remote termination")
	}
	s.closeDone()
	s.log.Info().Msg("session terminated by another participant")
}

func (s *Session) closeDone() { s.doneOnce.Do(func() { close(s.done) }) }

// open decrypts one stored row into its view model.
func (s *Session) open(key domain.SessionKey, anon domain.AnonymousID, row domain.Message) (domain.DecryptedMessage, error) {
	if row.SessionID != s.id {
		return domain.DecryptedMessage{}, fmt.Errorf("%w: row belongs to session %s", domain.ErrDecoding, row.SessionID)
	}
	if !row.Kind.Valid() {
		return domain.DecryptedMessage{}, fmt.Errorf("%w: unknown kind %q", domain.ErrDecoding, row.Kind)
	}
	pt, err := crypto.Open(key, row.Ciphertext, associatedData(s.id, row.Kind))
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	defer crypto.Wipe(pt)

	msg := domain.DecryptedMessage{
		ID:        row.ID,
		Kind:      row.Kind,
		Sender:    row.Sender,
		Timestamp: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		Mine:      row.Sender == anon,
	}
	switch row.Kind {
	case domain.KindText:
		if !utf8.Valid(pt) {
			return domain.DecryptedMessage{}, fmt.Errorf("%w: text is not utf-8", domain.ErrDecoding)
		}
		msg.Text = string(pt)
	case domain.KindImage:
		msg.Image = string(pt)
	}
	return msg, nil
}

// associatedData binds a ciphertext to its session and kind.
func associatedData(id domain.SessionID, kind domain.MessageKind) []byte {
	return []byte(id.String() + "|" + string(kind))
}

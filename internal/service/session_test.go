package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/gorm"

	"burna/internal/db"
	"burna/internal/domain"
	"burna/internal/service"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Publish(ev domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

var testLimits = service.Limits{
	SessionLifetime:      24 * time.Hour,
	MaxParticipants:      10,
	MaxMessageTTLSeconds: 3600,
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect("sqlite", "file:"+filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newService(t *testing.T, gdb *gorm.DB) (*service.SessionService, *recorder, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	rec := &recorder{}
	svc, err := service.NewSessionService(gdb, rec, testLimits, service.WithClock(clk))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, rec, clk
}

func sealed(sender domain.AnonymousID, id domain.SessionID) domain.NewMessage {
	return domain.NewMessage{SessionID: id, Ciphertext: `{"v":1}`, Kind: domain.KindText, Sender: sender}
}

func TestCreateSession_Validation(t *testing.T) {
	svc, _, _ := newService(t, openDB(t))
	ctx := context.Background()

	for _, tc := range []struct {
		name     string
		max, ttl int
	}{
		{"zero participants", 0, 60},
		{"too many participants", 11, 60},
		{"zero ttl", 2, 0},
		{"ttl over limit", 2, 3601},
	} {
		if _, err := svc.CreateSession(ctx, tc.max, tc.ttl); !errors.Is(err, domain.ErrCreation) {
			t.Errorf("%s: err = %v, want ErrCreation", tc.name, err)
		}
	}

	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if chat.ID == "" || chat.MaxParticipants != 2 || chat.MessageTTLSeconds != 60 || chat.Terminated {
		t.Fatalf("unexpected chat: %+v", chat)
	}
	if got := chat.ExpiresAt.Sub(chat.CreatedAt); got != 24*time.Hour {
		t.Fatalf("session lifetime = %v, want 24h", got)
	}

	got, err := svc.GetSession(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != chat.ID || !got.CreatedAt.Equal(chat.CreatedAt) {
		t.Fatalf("get returned %+v, want %+v", got, chat)
	}
}

func TestGetSession_Unknown(t *testing.T) {
	svc, _, _ := newService(t, openDB(t))
	for _, id := range []domain.SessionID{"not-a-uuid", "6f1c0b8e-2a4d-4c44-9b7a-1d1a2f3e4b5c"} {
		if _, err := svc.GetSession(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetSession(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestJoinParticipant_Capacity(t *testing.T) {
	svc, _, _ := newService(t, openDB(t))
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, anon := range []domain.AnonymousID{"anon_a", "anon_b", "anon_a"} {
		if err := svc.JoinParticipant(ctx, chat.ID, anon); err != nil {
			t.Fatalf("join %s: %v", anon, err)
		}
	}
	if err := svc.JoinParticipant(ctx, chat.ID, "anon_c"); !errors.Is(err, domain.ErrFull) {
		t.Fatalf("third join err = %v, want ErrFull", err)
	}
	n, err := svc.CountParticipants(ctx, chat.ID)
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v; want 2", n, err)
	}
}

func TestJoinParticipant_ConcurrentNeverExceedsCap(t *testing.T) {
	svc, _, _ := newService(t, openDB(t))
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 3, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			anon := domain.AnonymousID("anon_" + string(rune('a'+i)))
			if err := svc.JoinParticipant(ctx, chat.ID, anon); err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrFull) {
				t.Errorf("join %s: %v", anon, err)
			}
		}(i)
	}
	wg.Wait()
	if joined != 3 {
		t.Fatalf("joined = %d, want exactly 3", joined)
	}
	if n, _ := svc.CountParticipants(ctx, chat.ID); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestSessionExpiry_ActsAsTerminated(t *testing.T) {
	svc, _, clk := newService(t, openDB(t))
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clk.Add(24 * time.Hour)

	if _, err := svc.GetSession(ctx, chat.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get expired: %v", err)
	}
	if err := svc.JoinParticipant(ctx, chat.ID, "anon_a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("join expired: %v", err)
	}
	if _, err := svc.InsertMessage(ctx, sealed("anon_a", chat.ID)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("insert expired: %v", err)
	}
}

func TestInsertMessage_PublishesAndClampsExpiry(t *testing.T) {
	svc, rec, clk := newService(t, openDB(t))
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := clk.Now().UTC()

	tests := []struct {
		name    string
		expires time.Time
		want    time.Time
	}{
		{"unset", time.Time{}, now.Add(60 * time.Second)},
		{"within ttl", now.Add(30 * time.Second), now.Add(30 * time.Second)},
		{"beyond ttl", now.Add(time.Hour), now.Add(60 * time.Second)},
		{"in the past", now.Add(-time.Second), now.Add(60 * time.Second)},
	}
	for _, tt := range tests {
		nm := sealed("anon_a", chat.ID)
		nm.ExpiresAt = tt.expires
		msg, err := svc.InsertMessage(ctx, nm)
		if err != nil {
			t.Fatalf("%s: insert: %v", tt.name, err)
		}
		if !msg.ExpiresAt.Equal(tt.want) {
			t.Errorf("%s: expires_at = %v, want %v", tt.name, msg.ExpiresAt, tt.want)
		}
		if msg.ID == "" || msg.Sender != "anon_a" || !msg.CreatedAt.Equal(now) {
			t.Errorf("%s: unexpected row %+v", tt.name, msg)
		}
	}

	events := rec.all()
	if len(events) != len(tests) {
		t.Fatalf("published %d events, want %d", len(events), len(tests))
	}
	for _, ev := range events {
		if ev.Type != domain.EventMessage || ev.SessionID != chat.ID || ev.Message == nil {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestInsertMessage_Rejects(t *testing.T) {
	svc, rec, _ := newService(t, openDB(t))
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := sealed("anon_a", chat.ID)
	bad.Kind = "video"
	if _, err := svc.InsertMessage(ctx, bad); !errors.Is(err, domain.ErrCreation) {
		t.Fatalf("bad kind err = %v, want ErrCreation", err)
	}
	empty := sealed("anon_a", chat.ID)
	empty.Ciphertext = ""
	if _, err := svc.InsertMessage(ctx, empty); !errors.Is(err, domain.ErrCreation) {
		t.Fatalf("empty ciphertext err = %v, want ErrCreation", err)
	}
	if _, err := svc.InsertMessage(ctx, sealed("anon_a", "6f1c0b8e-2a4d-4c44-9b7a-1d1a2f3e4b5c")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown session err = %v, want ErrNotFound", err)
	}
	if n := len(rec.all()); n != 0 {
		t.Fatalf("rejected inserts published %d events", n)
	}
}

func TestListMessages_OrderAndExpiry(t *testing.T) {
	gdb := openDB(t)
	svc, _, clk := newService(t, gdb)
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var want []domain.MessageID
	for i := 0; i < 5; i++ {
		nm := sealed("anon_a", chat.ID)
		if i == 0 {
			nm.ExpiresAt = clk.Now().Add(10 * time.Second)
		}
		msg, err := svc.InsertMessage(ctx, nm)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if i > 0 {
			want = append(want, msg.ID)
		}
	}
	clk.Add(10 * time.Second)

	got, err := svc.ListMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("listed %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("message %d = %s, want %s", i, got[i].ID, want[i])
		}
	}

	// A restarted relay continues the same ordering.
	svc2, err := service.NewSessionService(gdb, &recorder{}, testLimits, service.WithClock(clk))
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	last, err := svc2.InsertMessage(ctx, sealed("anon_b", chat.ID))
	if err != nil {
		t.Fatalf("insert after restart: %v", err)
	}
	got, _ = svc2.ListMessages(ctx, chat.ID)
	if got[len(got)-1].ID != last.ID {
		t.Fatalf("message inserted after restart is not last")
	}
}

func TestTerminateSession(t *testing.T) {
	svc, rec, _ := newService(t, openDB(t))
	ctx := context.Background()
	chat, err := svc.CreateSession(ctx, 2, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.TerminateSession(ctx, chat.ID); err != nil {
			t.Fatalf("terminate #%d: %v", i+1, err)
		}
	}
	events := rec.all()
	if len(events) != 1 || events[0].Type != domain.EventTerminated || events[0].SessionID != chat.ID {
		t.Fatalf("events = %+v, want one terminated event", events)
	}

	if _, err := svc.GetSession(ctx, chat.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get after terminate: %v", err)
	}
	if err := svc.JoinParticipant(ctx, chat.ID, "anon_a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("join after terminate: %v", err)
	}
	if _, err := svc.ListMessages(ctx, chat.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("list after terminate: %v", err)
	}
	if err := svc.TerminateSession(ctx, "6f1c0b8e-2a4d-4c44-9b7a-1d1a2f3e4b5c"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("terminate unknown: %v", err)
	}
}

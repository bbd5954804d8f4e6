package hub_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"burna/internal/domain"
	"burna/internal/hub"
)

func newServer(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	h := hub.NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.SessionID(r.URL.Query().Get("session_id"))
		if err := h.Serve(w, r, id, func() error { return nil }); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, base string, id domain.SessionID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(base+"/?session_id="+id.String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitOnline(t *testing.T, h *hub.Hub, id domain.SessionID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Online(id) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Online(%s) = %d, want %d", id, h.Online(id), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return ev
}

func messageEvent(id domain.SessionID, msgID domain.MessageID) domain.Event {
	return domain.Event{
		Type:      domain.EventMessage,
		SessionID: id,
		Message:   &domain.Message{ID: msgID, SessionID: id, Kind: domain.KindText},
	}
}

func TestHub_OnlineEmpty(t *testing.T) {
	h := hub.NewHub(zerolog.Nop())
	if n := h.Online("nobody"); n != 0 {
		t.Fatalf("Online() for unknown session = %d, want 0", n)
	}
	h.Publish(messageEvent("nobody", "m1"))
}

func TestHub_PublishInOrderToAll(t *testing.T) {
	h, base := newServer(t)
	a := dial(t, base, "s1")
	b := dial(t, base, "s1")
	other := dial(t, base, "s2")
	waitOnline(t, h, "s1", 2)
	waitOnline(t, h, "s2", 1)

	for _, id := range []domain.MessageID{"m1", "m2", "m3"} {
		h.Publish(messageEvent("s1", id))
	}
	h.Publish(messageEvent("s2", "x1"))

	for _, conn := range []*websocket.Conn{a, b} {
		for _, want := range []domain.MessageID{"m1", "m2", "m3"} {
			ev := readEvent(t, conn)
			if ev.Type != domain.EventMessage || ev.Message == nil || ev.Message.ID != want {
				t.Fatalf("got %+v, want message %s", ev, want)
			}
		}
	}
	if ev := readEvent(t, other); ev.Message == nil || ev.Message.ID != "x1" {
		t.Fatalf("s2 subscriber got %+v", ev)
	}
}

func TestHub_TerminatedClosesSubscribers(t *testing.T) {
	h, base := newServer(t)
	conn := dial(t, base, "s1")
	waitOnline(t, h, "s1", 1)

	h.Publish(domain.Event{Type: domain.EventTerminated, SessionID: "s1"})

	if ev := readEvent(t, conn); ev.Type != domain.EventTerminated {
		t.Fatalf("got %+v, want terminated", ev)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("after terminated: err = %v, want normal closure", err)
	}
	waitOnline(t, h, "s1", 0)

	// A new subscriber after shutdown gets a fresh hub.
	again := dial(t, base, "s1")
	waitOnline(t, h, "s1", 1)
	h.Publish(messageEvent("s1", "m9"))
	if ev := readEvent(t, again); ev.Message == nil || ev.Message.ID != "m9" {
		t.Fatalf("fresh hub delivered %+v", ev)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	h, base := newServer(t)
	conn := dial(t, base, "s1")
	waitOnline(t, h, "s1", 1)
	_ = conn.Close()
	waitOnline(t, h, "s1", 0)
}

func TestHub_AdmitRejected(t *testing.T) {
	h := hub.NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h.Serve(w, r, "gone", func() error { return domain.ErrNotFound })
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err == nil {
		t.Fatal("dial succeeded for a rejected session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("response = %v, want 404", resp)
	}
	waitOnline(t, h, "gone", 0)
}

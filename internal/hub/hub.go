// Package hub fans realtime events out to the websocket subscribers of each
// session.
//
// Every session gets its own SessionHub with a single run goroutine that owns
// the client set, so frames reach every subscriber in the order they were
// published. A subscriber whose send buffer is full is dropped rather than
// allowed to stall the session.
package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"burna/internal/domain"
	"burna/internal/metrics"
)

// sendBuffer is the per-client queue of frames not yet written.
const sendBuffer = 256

// Hub owns one SessionHub per session with at least one subscriber.
type Hub struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*SessionHub
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{sessions: make(map[domain.SessionID]*SessionHub), log: log.With().Str("component", "hub").Logger()}
}

// Session returns the running hub for id, starting one if needed.
func (h *Hub) Session(id domain.SessionID) *SessionHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sh := h.sessions[id]; sh != nil {
		select {
		case <-sh.done:
		default:
			return sh
		}
	}
	sh := newSessionHub(id)
	h.sessions[id] = sh
	go func() {
		sh.run()
		h.remove(id, sh)
	}()
	return sh
}

// Join registers c with the hub for id and returns that hub.
func (h *Hub) Join(id domain.SessionID, c *Client) *SessionHub {
	for {
		sh := h.Session(id)
		c.hub = sh
		if sh.Register(c) {
			return sh
		}
	}
}

func (h *Hub) remove(id domain.SessionID, sh *SessionHub) {
	h.mu.Lock()
	if h.sessions[id] == sh {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
}

func (h *Hub) lookup(id domain.SessionID) *SessionHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[id]
}

// Publish sends ev to every current subscriber of its session. A
// terminated event is delivered and then ends the session hub, closing all
// of its subscribers.
func (h *Hub) Publish(ev domain.Event) {
	sh := h.lookup(ev.SessionID)
	if sh == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", ev.SessionID.String()).Msg("marshal event")
		return
	}
	sh.publish(frame{data: b, last: ev.Type == domain.EventTerminated})
}

// Online returns the number of live subscribers for id.
func (h *Hub) Online(id domain.SessionID) int {
	sh := h.lookup(id)
	if sh == nil {
		return 0
	}
	return sh.Online()
}

type frame struct {
	data []byte
	last bool
}

// SessionHub serialises delivery for one session.
type SessionHub struct {
	id         domain.SessionID
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan frame
	done       chan struct{}
	online     int32
}

func newSessionHub(id domain.SessionID) *SessionHub {
	return &SessionHub{
		id:         id,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan frame, 256),
		done:       make(chan struct{}),
	}
}

// Register adds c. It reports false if the hub has already shut down.
func (sh *SessionHub) Register(c *Client) bool {
	select {
	case sh.register <- c:
		return true
	case <-sh.done:
		return false
	}
}

// Unregister removes c; unknown or already dropped clients are ignored.
func (sh *SessionHub) Unregister(c *Client) {
	select {
	case sh.unregister <- c:
	case <-sh.done:
	}
}

func (sh *SessionHub) publish(f frame) {
	select {
	case sh.broadcast <- f:
	case <-sh.done:
	}
}

// Online returns the number of registered clients.
func (sh *SessionHub) Online() int { return int(atomic.LoadInt32(&sh.online)) }

// Done is closed once the hub has stopped.
func (sh *SessionHub) Done() <-chan struct{} { return sh.done }

func (sh *SessionHub) run() {
	defer close(sh.done)
	for {
		select {
		case c := <-sh.register:
			sh.clients[c] = true
			sh.count()
			metrics.WsConnections.Inc()
		case c := <-sh.unregister:
			if _, ok := sh.clients[c]; ok {
				sh.drop(c)
			}
			if len(sh.clients) == 0 {
				return
			}
		case f := <-sh.broadcast:
			for c := range sh.clients {
				select {
				case c.send <- f.data:
				default:
					sh.drop(c)
				}
			}
			if f.last {
				for c := range sh.clients {
					sh.drop(c)
				}
				return
			}
		}
	}
}

func (sh *SessionHub) drop(c *Client) {
	delete(sh.clients, c)
	close(c.send)
	sh.count()
	metrics.WsConnections.Dec()
}

func (sh *SessionHub) count() {
	atomic.StoreInt32(&sh.online, int32(len(sh.clients)))
}

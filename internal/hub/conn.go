package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"burna/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// Subscribers never send payloads, only control frames.
	maxReadBytes = 4 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket subscriber.
type Client struct {
	hub  *SessionHub
	conn *websocket.Conn
	send chan []byte
}

// Serve registers a subscriber for id, asks admit whether the session may
// be subscribed to, and then upgrades the request to a websocket, pumping
// frames until either side closes. Registering before admit and before the
// handshake means the peer sees every event published after its dial
// returns, including a termination racing the subscribe.
//
// If admit fails Serve returns its error without writing a response.
// Otherwise it blocks for the lifetime of the connection and returns nil.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, id domain.SessionID, admit func() error) error {
	c := &Client{send: make(chan []byte, sendBuffer)}
	sh := h.Join(id, c)
	if err := admit(); err != nil {
		sh.Unregister(c)
		return err
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sh.Unregister(c)
		return nil
	}
	c.conn = conn
	go c.writePump()
	c.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

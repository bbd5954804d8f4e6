package relay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"burna/internal/domain"
)

// maxFrameBytes bounds one realtime frame: a sealed 1 MiB image plus JSON
// and base64 overhead.
const maxFrameBytes = 4 << 20

// Subscribe opens the realtime channel for id. Events are delivered until
// ctx is done, Close is called, or the relay drops the connection.
func (c *HTTP) Subscribe(ctx context.Context, id domain.SessionID) (domain.Subscription, error) {
	u, err := c.wsURL(id)
	if err != nil {
		return nil, err
	}
	// The websocket dialer rejects clients with a Timeout; ctx bounds the handshake.
	hc := *c.HTTP
	hc.Timeout = 0
	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: &hc})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: relay subscribe %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: relay subscribe %s: %v", domain.ErrStoreUnavailable, id, err)
	}
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(ctx)
	s := &wsSubscription{
		conn:   conn,
		events: make(chan domain.Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.readLoop(ctx)
	return s, nil
}

func (c *HTTP) wsURL(id domain.SessionID) (string, error) {
	u, err := url.Parse(c.Base)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"session_id": {id.String()}}.Encode()
	return u.String(), nil
}

type wsSubscription struct {
	conn   *websocket.Conn
	events chan domain.Event
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (s *wsSubscription) readLoop(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	for {
		var ev domain.Event
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.mu.Lock()
				s.err = fmt.Errorf("%w: realtime channel: %v", domain.ErrStoreUnavailable, err)
				s.mu.Unlock()
			}
			return
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *wsSubscription) Events() <-chan domain.Event { return s.events }

func (s *wsSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the subscription and waits for the reader to stop. A
// connection the relay already closed is not an error.
func (s *wsSubscription) Close() error {
	s.cancel()
	_ = s.conn.Close(websocket.StatusNormalClosure, "bye")
	<-s.done
	return nil
}

// Compile-time assertion that HTTP implements domain.Subscriber.
var _ domain.Subscriber = (*HTTP)(nil)

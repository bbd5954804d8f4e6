package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"burna/internal/domain"
)

// HTTP talks to a relay over its JSON API.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the relay at base, e.g. http://localhost:8080.
func NewHTTP(base string) *HTTP {
	return &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

type createSessionRequest struct {
	MaxParticipants   int `json:"max_participants"`
	MessageTTLSeconds int `json:"message_ttl_seconds"`
}

type countResponse struct {
	Count int `json:"count"`
}

type messagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func sessionPath(id domain.SessionID) string {
	return "/api/v1/sessions/" + url.PathEscape(id.String())
}

func (c *HTTP) CreateSession(ctx context.Context, maxParticipants, messageTTLSeconds int) (domain.Chat, error) {
	var out domain.Chat
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions", createSessionRequest{
		MaxParticipants:   maxParticipants,
		MessageTTLSeconds: messageTTLSeconds,
	}, &out)
	return out, err
}

func (c *HTTP) GetSession(ctx context.Context, id domain.SessionID) (domain.Chat, error) {
	var out domain.Chat
	err := c.do(ctx, http.MethodGet, sessionPath(id), nil, &out)
	return out, err
}

func (c *HTTP) CountParticipants(ctx context.Context, id domain.SessionID) (int, error) {
	var out countResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id)+"/participants", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *HTTP) JoinParticipant(ctx context.Context, id domain.SessionID, anon domain.AnonymousID) error {
	return c.do(ctx, http.MethodPut, sessionPath(id)+"/participants/"+url.PathEscape(anon.String()), nil, nil)
}

func (c *HTTP) InsertMessage(ctx context.Context, msg domain.NewMessage) (domain.Message, error) {
	var out domain.Message
	err := c.do(ctx, http.MethodPost, sessionPath(msg.SessionID)+"/messages", msg, &out)
	return out, err
}

func (c *HTTP) ListMessages(ctx context.Context, id domain.SessionID) ([]domain.Message, error) {
	var out messagesResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *HTTP) TerminateSession(ctx context.Context, id domain.SessionID) error {
	return c.do(ctx, http.MethodPost, sessionPath(id)+"/terminate", nil, nil)
}

// do sends in as JSON (if non-nil) and decodes a 2xx body into out (if
// non-nil). Non-2xx statuses become domain errors carrying method, path
// and status text.
func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: relay %s %s: %v", domain.ErrStoreUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("relay %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&e)
	detail := resp.Status
	if e.Error != "" {
		detail += ": " + e.Error
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		kind = domain.ErrFull
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		kind = domain.ErrStoreUnavailable
	default:
		kind = domain.ErrCreation
	}
	return fmt.Errorf("%w: relay %s %s: %s", kind, method, path, detail)
}

// Compile-time assertion that HTTP implements domain.Backend.
var _ domain.Backend = (*HTTP)(nil)

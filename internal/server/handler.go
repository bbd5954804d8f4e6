package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"burna/internal/domain"
	"burna/internal/hub"
)

// maxBodyBytes bounds request bodies: one sealed 1 MiB image plus envelope
// and base64 overhead.
const maxBodyBytes = 4 << 20

// Handler serves the relay API from a domain.Backend.
type Handler struct {
	store domain.Backend
	hub   *hub.Hub
}

func NewHandler(store domain.Backend, h *hub.Hub) *Handler {
	return &Handler{store: store, hub: h}
}

func sessionID(c *gin.Context) domain.SessionID {
	return domain.SessionID(c.Param("id"))
}

// fail maps domain errors onto statuses and writes the error body.
func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, domain.ErrFull):
		c.JSON(http.StatusConflict, gin.H{"error": "session full"})
	case errors.Is(err, domain.ErrCreation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		log.Error().Err(err).Str("op", op).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var req struct {
		MaxParticipants   int `json:"max_participants"`
		MessageTTLSeconds int `json:"message_ttl_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	chat, err := h.store.CreateSession(c.Request.Context(), req.MaxParticipants, req.MessageTTLSeconds)
	if err != nil {
		fail(c, "create session", err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	chat, err := h.store.GetSession(c.Request.Context(), sessionID(c))
	if err != nil {
		fail(c, "get session", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// Terminate handles POST /api/v1/sessions/:id/terminate.
func (h *Handler) Terminate(c *gin.Context) {
	if err := h.store.TerminateSession(c.Request.Context(), sessionID(c)); err != nil {
		fail(c, "terminate session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CountParticipants handles GET /api/v1/sessions/:id/participants.
func (h *Handler) CountParticipants(c *gin.Context) {
	n, err := h.store.CountParticipants(c.Request.Context(), sessionID(c))
	if err != nil {
		fail(c, "count participants", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// Join handles PUT /api/v1/sessions/:id/participants/:anon.
func (h *Handler) Join(c *gin.Context) {
	anon := domain.AnonymousID(c.Param("anon"))
	if err := h.store.JoinParticipant(c.Request.Context(), sessionID(c), anon); err != nil {
		fail(c, "join", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InsertMessage handles POST /api/v1/sessions/:id/messages. The session in
// the path wins over any session_id in the body.
func (h *Handler) InsertMessage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var nm domain.NewMessage
	if err := c.ShouldBindJSON(&nm); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	nm.SessionID = sessionID(c)
	msg, err := h.store.InsertMessage(c.Request.Context(), nm)
	if err != nil {
		fail(c, "insert message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /api/v1/sessions/:id/messages.
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.store.ListMessages(c.Request.Context(), sessionID(c))
	if err != nil {
		fail(c, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Subscribe handles GET /ws?session_id=. Only active sessions can be
// subscribed to; the connection is closed after a terminated event.
func (h *Handler) Subscribe(c *gin.Context) {
	id := domain.SessionID(c.Query("session_id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
		return
	}
	err := h.hub.Serve(c.Writer, c.Request, id, func() error {
		_, err := h.store.GetSession(c.Request.Context(), id)
		return err
	})
	if err != nil {
		fail(c, "subscribe", err)
	}
}

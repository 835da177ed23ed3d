package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/core"
	"github.com/teamchat/teamchat-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message history and creation.
// Creation through REST goes through the same persist-then-broadcast path
// as the realtime surface.
type MessageHandlers struct {
	facade *core.Facade
	log    *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(facade *core.Facade, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{facade: facade, log: logger}
}

// CreateMessageRequest represents the create message request body.
type CreateMessageRequest struct {
	UserID      int64  `json:"user_id"`
	Content     string `json:"content" binding:"required,min=1"`
	MessageType string `json:"message_type" binding:"omitempty,oneof=chat system ai"`
}

// ListMessages returns messages for a room, newest first.
// GET /api/rooms/:id/messages?limit=N&offset=M
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.facade.Router().History(c.Request.Context(), roomID, limit, offset)
	if err != nil {
		writeDomainError(c, h.log, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// CreateMessage persists a message and broadcasts it to the room.
// POST /api/rooms/:id/messages
func (h *MessageHandlers) CreateMessage(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.facade.SendMessage(c.Request.Context(), roomID, req.UserID, req.Content, store.MessageKind(req.MessageType))
	if err != nil {
		writeDomainError(c, h.log, err, "failed to create message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ClearMessages deletes all messages for a room. Destructive; access
// control belongs to the outer authorization layer.
// DELETE /api/rooms/:id/messages
func (h *MessageHandlers) ClearMessages(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.facade.Router().Clear(c.Request.Context(), roomID); err != nil {
		writeDomainError(c, h.log, err, "failed to clear messages")
		return
	}

	h.log.Info().Int64("room_id", roomID).Msg("room messages cleared")
	c.Status(http.StatusNoContent)
}

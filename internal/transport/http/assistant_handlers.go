package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/service/assistant"
	"github.com/teamchat/teamchat-server/internal/store"
)

// AssistantHandlers exposes the AI-collaborator surface over REST.
type AssistantHandlers struct {
	assistant *assistant.Service
	log       *zerolog.Logger
}

// NewAssistantHandlers creates a new assistant handlers instance.
func NewAssistantHandlers(asst *assistant.Service, logger *zerolog.Logger) *AssistantHandlers {
	return &AssistantHandlers{assistant: asst, log: logger}
}

// AskAssistantRequest represents the assistant prompt request body.
type AskAssistantRequest struct {
	UserID int64  `json:"user_id"`
	Prompt string `json:"prompt" binding:"required,min=1"`
}

// Ask generates an assistant reply in an AI-enabled room and broadcasts it.
// POST /api/rooms/:id/assistant
func (h *AssistantHandlers) Ask(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AskAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.assistant.Ask(c.Request.Context(), roomID, req.UserID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrRoomNotAIEnabled):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, assistant.ErrEmptyPrompt):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		default:
			h.log.Error().Err(err).Int64("room_id", roomID).Msg("assistant reply failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, msg)
}

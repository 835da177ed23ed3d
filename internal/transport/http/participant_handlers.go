package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/core"
)

// ParticipantHandlers provides HTTP handlers for room membership. They
// delegate to the presence tracker so the REST surface and the realtime
// surface share one set of membership semantics.
type ParticipantHandlers struct {
	facade *core.Facade
	log    *zerolog.Logger
}

// NewParticipantHandlers creates a new participant handlers instance.
func NewParticipantHandlers(facade *core.Facade, logger *zerolog.Logger) *ParticipantHandlers {
	return &ParticipantHandlers{facade: facade, log: logger}
}

// AddParticipantRequest represents the add participant request body.
type AddParticipantRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}

// ParticipantResponse represents a participant in API responses.
type ParticipantResponse struct {
	RoomID     int64   `json:"room_id"`
	UserID     int64   `json:"user_id"`
	Name       string  `json:"name"`
	Avatar     string  `json:"avatar"`
	JoinedAt   string  `json:"joined_at"`
	LastReadAt *string `json:"last_read_at,omitempty"`
}

// ListParticipants lists active members of a room with display attributes.
// GET /api/rooms/:id/participants
func (h *ParticipantHandlers) ListParticipants(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	participants, err := h.facade.Presence().ListParticipants(c.Request.Context(), roomID)
	if err != nil {
		writeDomainError(c, h.log, err, "failed to list participants")
		return
	}

	response := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		item := ParticipantResponse{
			RoomID:   p.RoomID,
			UserID:   p.UserID,
			Name:     p.UserName,
			Avatar:   p.UserAvatar,
			JoinedAt: p.JoinedAt.Format(timeLayout),
		}
		if p.LastReadAt != nil {
			formatted := p.LastReadAt.Format(timeLayout)
			item.LastReadAt = &formatted
		}
		response = append(response, item)
	}
	c.JSON(http.StatusOK, response)
}

// AddParticipant adds a user to a room without a live connection (the CRUD
// layer invites members this way). Duplicate-safe: rejoining reactivates
// the existing row.
// POST /api/rooms/:id/participants
func (h *ParticipantHandlers) AddParticipant(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	participant, err := h.facade.Presence().AddMember(c.Request.Context(), roomID, req.UserID)
	if err != nil {
		writeDomainError(c, h.log, err, "failed to add participant")
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("user_id", req.UserID).Msg("participant added")
	c.JSON(http.StatusCreated, ParticipantResponse{
		RoomID:   participant.RoomID,
		UserID:   participant.UserID,
		JoinedAt: participant.JoinedAt.Format(timeLayout),
	})
}

// RemoveParticipant deactivates a user's membership.
// DELETE /api/rooms/:id/participants/:userID
func (h *ParticipantHandlers) RemoveParticipant(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	if err := h.facade.Presence().RemoveMember(c.Request.Context(), roomID, userID); err != nil {
		writeDomainError(c, h.log, err, "failed to remove participant")
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("user_id", userID).Msg("participant removed")
	c.Status(http.StatusNoContent)
}

// UpdateLastRead sets the participant's last-read timestamp to now.
// POST /api/rooms/:id/participants/:userID/read
func (h *ParticipantHandlers) UpdateLastRead(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	if err := h.facade.Presence().UpdateLastRead(c.Request.Context(), roomID, userID); err != nil {
		writeDomainError(c, h.log, err, "failed to update last read")
		return
	}

	c.Status(http.StatusNoContent)
}

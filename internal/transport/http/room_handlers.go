package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/core"
	"github.com/teamchat/teamchat-server/internal/store"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// RoomHandlers provides HTTP handlers for room management endpoints.
// These delegate straight to the persistence gateway; no presence logic.
type RoomHandlers struct {
	facade *core.Facade
	store  store.Store
	log    *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(facade *core.Facade, st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		facade: facade,
		store:  st,
		log:    logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=64"`
	Kind       string `json:"kind" binding:"omitempty,oneof=general ai"`
	TeamID     *int64 `json:"team_id"`
	MaxMembers int    `json:"max_members" binding:"omitempty,min=0"`
}

// UpdateRoomRequest represents the update room request body.
type UpdateRoomRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=64"`
	MaxMembers int    `json:"max_members" binding:"omitempty,min=0"`
}

// MoveRoomRequest reparents a room; a nil team detaches it.
type MoveRoomRequest struct {
	TeamID *int64 `json:"team_id"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID         int64  `json:"id"`
	TeamID     *int64 `json:"team_id,omitempty"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	MaxMembers int    `json:"max_members"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:         room.ID,
		TeamID:     room.TeamID,
		Name:       room.Name,
		Kind:       string(room.Kind),
		MaxMembers: room.MaxMembers,
		IsActive:   room.IsActive,
		CreatedAt:  room.CreatedAt.Format(timeLayout),
		UpdatedAt:  room.UpdatedAt.Format(timeLayout),
	}
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.Name, store.RoomKind(req.Kind), req.TeamID, req.MaxMembers)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(room))
}

// ListRooms handles listing active rooms, optionally filtered by team.
// GET /api/rooms?team_id=N
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	var teamID *int64
	if raw := c.Query("team_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid team_id"})
			return
		}
		teamID = &id
	}

	rooms, err := h.store.ListRooms(c.Request.Context(), teamID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room))
	}
	c.JSON(http.StatusOK, response)
}

// GetRoom handles fetching a single room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, roomResponse(room))
}

// UpdateRoom handles renaming a room and changing its member cap.
// PATCH /api/rooms/:id
func (h *RoomHandlers) UpdateRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.UpdateRoom(c.Request.Context(), roomID, req.Name, req.MaxMembers)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to update room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, roomResponse(room))
}

// DeleteRoom soft-deletes a room.
// DELETE /api/rooms/:id
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeactivateRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to delete room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", roomID).Msg("room deactivated")
	c.Status(http.StatusNoContent)
}

// MoveRoom reparents a room to another team.
// POST /api/rooms/:id/move
func (h *RoomHandlers) MoveRoom(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req MoveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.facade.Presence().MoveRoom(c.Request.Context(), roomID, req.TeamID)
	if err != nil {
		writeDomainError(c, h.log, err, "failed to move room")
		return
	}

	c.JSON(http.StatusOK, roomResponse(room))
}

// pathID parses a numeric path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeDomainError maps core domain errors onto HTTP statuses.
func writeDomainError(c *gin.Context, logger *zerolog.Logger, err error, logMsg string) {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		status := http.StatusBadRequest
		switch domainErr.Code {
		case core.ErrCodeRoomNotFound, core.ErrCodeUserNotFound:
			status = http.StatusNotFound
		case core.ErrCodeRoomInactive, core.ErrCodeRoomFull:
			status = http.StatusConflict
		}
		c.JSON(status, ErrorResponse{Error: domainErr.Message})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	logger.Error().Err(err).Msg(logMsg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/store"
)

// UserHandlers provides HTTP handlers for the user read surface the chat
// core consumes, plus creation for administrative use.
type UserHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{store: st, log: logger}
}

// CreateUserRequest represents the create user request body.
type CreateUserRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=64"`
	Avatar string `json:"avatar"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// CreateUser handles user creation.
// POST /api/users
func (h *UserHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), req.Name, req.Avatar)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, UserResponse{ID: user.ID, Name: user.Name, Avatar: user.Avatar})
}

// GetUser handles fetching a single user.
// GET /api/users/:id
func (h *UserHandlers) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Name: user.Name, Avatar: user.Avatar})
}

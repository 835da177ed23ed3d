package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/config"
	"github.com/teamchat/teamchat-server/internal/core"
	"github.com/teamchat/teamchat-server/internal/service/assistant"
	"github.com/teamchat/teamchat-server/internal/store"
)

// ErrorResponse is the common error body for REST endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server: health check, websocket endpoint, and
// the REST surface the outer CRUD layer calls into.
func NewServer(facade *core.Facade, asst *assistant.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(facade, cfg.MessageRateLimit, logger)))

	roomHandlers := NewRoomHandlers(facade, st, logger)
	participantHandlers := NewParticipantHandlers(facade, logger)
	messageHandlers := NewMessageHandlers(facade, logger)
	userHandlers := NewUserHandlers(st, logger)
	assistantHandlers := NewAssistantHandlers(asst, logger)

	api := router.Group("/api")
	{
		api.POST("/users", userHandlers.CreateUser)
		api.GET("/users/:id", userHandlers.GetUser)

		api.POST("/rooms", roomHandlers.CreateRoom)
		api.GET("/rooms", roomHandlers.ListRooms)
		api.GET("/rooms/:id", roomHandlers.GetRoom)
		api.PATCH("/rooms/:id", roomHandlers.UpdateRoom)
		api.DELETE("/rooms/:id", roomHandlers.DeleteRoom)
		api.POST("/rooms/:id/move", roomHandlers.MoveRoom)

		api.GET("/rooms/:id/participants", participantHandlers.ListParticipants)
		api.POST("/rooms/:id/participants", participantHandlers.AddParticipant)
		api.DELETE("/rooms/:id/participants/:userID", participantHandlers.RemoveParticipant)
		api.POST("/rooms/:id/participants/:userID/read", participantHandlers.UpdateLastRead)

		api.GET("/rooms/:id/messages", messageHandlers.ListMessages)
		api.POST("/rooms/:id/messages", messageHandlers.CreateMessage)
		api.DELETE("/rooms/:id/messages", messageHandlers.ClearMessages)

		api.POST("/rooms/:id/assistant", assistantHandlers.Ask)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

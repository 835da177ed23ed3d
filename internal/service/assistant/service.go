package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teamchat/teamchat-server/internal/core"
	"github.com/teamchat/teamchat-server/internal/store"
)

// Common errors for assistant operations.
var (
	ErrRoomNotAIEnabled = errors.New("room is not AI-enabled")
	ErrEmptyPrompt      = errors.New("prompt must not be empty")
)

// Responder produces an assistant reply for a prompt. The real generator
// lives outside this service; tests and local runs use EchoResponder.
type Responder interface {
	Respond(ctx context.Context, roomID int64, prompt string) (string, error)
}

// EchoResponder is a trivial Responder for local use.
type EchoResponder struct{}

// Respond returns a canned acknowledgement of the prompt.
func (EchoResponder) Respond(_ context.Context, _ int64, prompt string) (string, error) {
	return "You said: " + strings.TrimSpace(prompt), nil
}

// Service injects assistant replies into chat rooms. It is the only
// producer of messages with kind "ai": the reply is persisted through the
// message router and then pushed through the fan-out, both to the room and
// directly to the asking user's connections.
type Service struct {
	store  store.Store
	router *core.MessageRouter
	fanout *core.BroadcastFanout

	responder Responder
}

// New creates a new assistant service.
func New(st store.Store, router *core.MessageRouter, fanout *core.BroadcastFanout, responder Responder) *Service {
	return &Service{
		store:     st,
		router:    router,
		fanout:    fanout,
		responder: responder,
	}
}

// Ask generates a reply to the prompt in an AI-enabled room. The reply is
// broadcast to the room as a newMessage and also delivered to every
// connection of the asking user, so they see it even from rooms they have
// open elsewhere.
func (s *Service) Ask(ctx context.Context, roomID, userID int64, prompt string) (*core.EnrichedMessage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room.Kind != store.RoomKindAI {
		return nil, ErrRoomNotAIEnabled
	}

	reply, err := s.responder.Respond(ctx, roomID, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	// System-authored: no user id, kind "ai".
	msg, err := s.router.Send(ctx, roomID, 0, reply, store.MessageKindAI)
	if err != nil {
		return nil, fmt.Errorf("persist reply: %w", err)
	}

	s.fanout.ToRoom(roomID, core.EventNewMessage, msg)
	if userID != 0 {
		s.fanout.ToUser(userID, core.EventNewMessage, msg)
	}

	return msg, nil
}

package http

import (
	"fmt"
	stdhttp "net/http"
	"testing"

	"github.com/teamchat/teamchat-server/internal/core"
)

func TestMessageEndpoints(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, CreateRoomRequest{Name: "general"})
	user := ts.createUser(t, "alice")

	var created core.EnrichedMessage
	rec := ts.do(t, stdhttp.MethodPost, fmt.Sprintf("/api/rooms/%d/messages", room.ID),
		CreateMessageRequest{UserID: user.ID, Content: "hello"}, &created)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create message: status %d body %s", rec.Code, rec.Body.String())
	}
	if created.Kind != "chat" {
		t.Fatalf("expected default chat kind, got %q", created.Kind)
	}
	if created.Author == nil || created.Author.Name != "alice" {
		t.Fatalf("expected enriched author, got %+v", created.Author)
	}

	rec = ts.do(t, stdhttp.MethodPost, fmt.Sprintf("/api/rooms/%d/messages", room.ID),
		CreateMessageRequest{Content: "second"}, nil)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create second message: status %d", rec.Code)
	}

	var messages []core.EnrichedMessage
	rec = ts.do(t, stdhttp.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", room.ID), nil, &messages)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("list messages: status %d", rec.Code)
	}
	if len(messages) != 2 || messages[0].Body != "second" || messages[1].Body != "hello" {
		t.Fatalf("expected newest-first listing, got %+v", messages)
	}
	if messages[0].Author != nil {
		t.Fatalf("expected nil author for authorless message, got %+v", messages[0].Author)
	}

	var page []core.EnrichedMessage
	rec = ts.do(t, stdhttp.MethodGet,
		fmt.Sprintf("/api/rooms/%d/messages?limit=1&offset=1", room.ID), nil, &page)
	if rec.Code != stdhttp.StatusOK || len(page) != 1 || page[0].Body != "hello" {
		t.Fatalf("unexpected page: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, stdhttp.MethodDelete, fmt.Sprintf("/api/rooms/%d/messages", room.ID), nil, nil)
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("clear messages: status %d", rec.Code)
	}
	rec = ts.do(t, stdhttp.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", room.ID), nil, &messages)
	if rec.Code != stdhttp.StatusOK || len(messages) != 0 {
		t.Fatalf("expected empty history, body %s", rec.Body.String())
	}
}

func TestCreateMessageValidation(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(t, CreateRoomRequest{Name: "general"})

	rec := ts.do(t, stdhttp.MethodPost, fmt.Sprintf("/api/rooms/%d/messages", room.ID),
		map[string]any{"user_id": 1}, nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for missing content, got %d", rec.Code)
	}

	rec = ts.do(t, stdhttp.MethodPost, fmt.Sprintf("/api/rooms/%d/messages", room.ID),
		map[string]any{"content": "x", "message_type": "video"}, nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for bad message type, got %d", rec.Code)
	}
}

func TestAssistantEndpoint(t *testing.T) {
	ts := newTestServer(t)

	general := ts.createRoom(t, CreateRoomRequest{Name: "general"})
	rec := ts.do(t, stdhttp.MethodPost, fmt.Sprintf("/api/rooms/%d/assistant", general.ID),
		AskAssistantRequest{Prompt: "hi"}, nil)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected 409 for non-AI room, got %d", rec.Code)
	}

	aiRoom := ts.createRoom(t, CreateRoomRequest{Name: "helper", Kind: "ai"})
	var reply core.EnrichedMessage
	rec = ts.do(t, stdhttp.MethodPost, fmt.Sprintf("/api/rooms/%d/assistant", aiRoom.ID),
		AskAssistantRequest{Prompt: "hi"}, &reply)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("ask assistant: status %d body %s", rec.Code, rec.Body.String())
	}
	if reply.Kind != "ai" || reply.Body != "You said: hi" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	rec = ts.do(t, stdhttp.MethodPost, "/api/rooms/9999/assistant",
		AskAssistantRequest{Prompt: "hi"}, nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected 404 for missing room, got %d", rec.Code)
	}
}

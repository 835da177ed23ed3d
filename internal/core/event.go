package core

// Event names emitted to clients.
const (
	EventRegistered = "registered"
	EventJoinedRoom = "joinedRoom"
	EventLeftRoom   = "leftRoom"
	EventNewMessage = "newMessage"
	EventError      = "error"
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Name    string
	Payload any
}

// Author is the display data attached to an enriched message.
type Author struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// EnrichedMessage is a persisted message with author display data attached.
// Author is nil for system messages and when the author row is gone.
type EnrichedMessage struct {
	ID        int64   `json:"id"`
	RoomID    int64   `json:"roomID"`
	UserID    *int64  `json:"userID"`
	Kind      string  `json:"messageType"`
	Body      string  `json:"content"`
	CreatedAt int64   `json:"createdAt"`
	Author    *Author `json:"author"`
}

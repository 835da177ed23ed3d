package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	InboundRegister    = "register"
	InboundJoinRoom    = "joinRoom"
	InboundLeaveRoom   = "leaveRoom"
	InboundSendMessage = "sendMessage"

	OutboundRegistered = "registered"
	OutboundJoinedRoom = "joinedRoom"
	OutboundLeftRoom   = "leftRoom"
	OutboundNewMessage = "newMessage"
	OutboundError      = "error"
)

// RegisterData identifies the user a connection speaks for.
type RegisterData struct {
	UserID int64 `json:"userID"`
}

// JoinRoomData requests to join a specific room. UserID may be zero for an
// anonymous observer.
type JoinRoomData struct {
	RoomID int64 `json:"roomID"`
	UserID int64 `json:"userID"`
}

// LeaveRoomData requests to leave a room.
type LeaveRoomData struct {
	RoomID int64 `json:"roomID"`
	UserID int64 `json:"userID"`
}

// SendMessageData is a chat message from the client. MessageType defaults
// to "chat" when omitted.
type SendMessageData struct {
	RoomID      int64  `json:"roomID"`
	UserID      int64  `json:"userID"`
	Content     string `json:"content"`
	MessageType string `json:"messageType,omitempty"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// RegisteredData acknowledges a register event to its sender.
type RegisteredData struct {
	UserID int64 `json:"userID"`
}

// JoinedRoomData acknowledges a joinRoom event to its sender.
type JoinedRoomData struct {
	RoomID int64 `json:"roomID"`
}

// LeftRoomData acknowledges a leaveRoom event to its sender.
type LeftRoomData struct {
	RoomID int64 `json:"roomID"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User represents a chat user. The core only reads display attributes;
// account management lives outside this service.
type User struct {
	ID        int64
	Name      string
	Avatar    string
	CreatedAt time.Time
}

// RoomKind defines different types of rooms.
type RoomKind string

const (
	RoomKindGeneral RoomKind = "general"
	RoomKindAI      RoomKind = "ai"
)

// Room represents a chat room.
type Room struct {
	ID         int64
	TeamID     *int64 // nil for rooms not attached to a team
	Name       string
	Kind       RoomKind
	MaxMembers int // 0 means unlimited
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participant represents durable room membership. Leaving deactivates the
// row; rejoining reactivates it, so at most one row exists per (room, user).
type Participant struct {
	ID         int64
	RoomID     int64
	UserID     int64
	JoinedAt   time.Time
	LastReadAt *time.Time
	IsActive   bool
}

// ParticipantInfo is a participant joined with user display attributes.
type ParticipantInfo struct {
	Participant
	UserName   string
	UserAvatar string
}

// MessageKind defines who authored a message.
type MessageKind string

const (
	MessageKindChat   MessageKind = "chat"
	MessageKindSystem MessageKind = "system"
	MessageKindAI     MessageKind = "ai"
)

// Message represents a persisted chat message. Messages are append-only;
// UserID is nil for system-generated messages.
type Message struct {
	ID        int64
	RoomID    int64
	UserID    *int64
	Kind      MessageKind
	Body      string
	CreatedAt time.Time
}

// AuthoredMessage is a message joined with its author's display attributes.
// Author fields are nil when the author row no longer exists or the message
// has no author.
type AuthoredMessage struct {
	Message
	AuthorName   *string
	AuthorAvatar *string
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with display attributes.
	CreateUser(ctx context.Context, name, avatar string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new active room.
	CreateRoom(ctx context.Context, name string, kind RoomKind, teamID *int64, maxMembers int) (*Room, error)

	// GetRoomByID retrieves a room by ID regardless of its active flag.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// ListRooms lists active rooms, optionally filtered by team.
	ListRooms(ctx context.Context, teamID *int64) ([]*Room, error)

	// UpdateRoom updates a room's name and max member count.
	UpdateRoom(ctx context.Context, id int64, name string, maxMembers int) (*Room, error)

	// DeactivateRoom soft-deletes a room.
	DeactivateRoom(ctx context.Context, id int64) error

	// MoveRoom reparents a room to another team (nil detaches it).
	MoveRoom(ctx context.Context, id int64, teamID *int64) (*Room, error)
}

// ParticipantStore handles room membership persistence.
type ParticipantStore interface {
	// UpsertParticipant ensures an active participant row for (room, user).
	// An inactive row is reactivated with a fresh join timestamp; an active
	// row is returned untouched; otherwise a new row is inserted.
	UpsertParticipant(ctx context.Context, roomID, userID int64) (*Participant, error)

	// DeactivateParticipant marks the participant inactive. It is a no-op
	// if the row is absent or already inactive.
	DeactivateParticipant(ctx context.Context, roomID, userID int64) error

	// ListActiveParticipants lists active participants of a room joined
	// with user display attributes.
	ListActiveParticipants(ctx context.Context, roomID int64) ([]*ParticipantInfo, error)

	// CountActiveParticipants returns the number of active participants.
	CountActiveParticipants(ctx context.Context, roomID int64) (int, error)

	// TouchLastRead sets the participant's last-read timestamp to now.
	TouchLastRead(ctx context.Context, roomID, userID int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage appends a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves messages for a room ordered newest-first,
	// joined with author display attributes, with limit/offset pagination.
	ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]*AuthoredMessage, error)

	// ClearMessages deletes all messages for a room. Destructive.
	ClearMessages(ctx context.Context, roomID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	ParticipantStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}

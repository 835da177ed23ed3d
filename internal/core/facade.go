package core

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/teamchat/teamchat-server/internal/store"
)

// Facade is the single entry point the transport layer calls for each
// inbound connection event. It composes the registry, presence tracker,
// message router and fan-out, and defines the per-connection state
// machine: unbound → registered/bound → unbound (via disconnect only).
//
// The transport serializes events per connection, so each method may be
// called concurrently only for different connections.
type Facade struct {
	registry *ConnectionRegistry
	presence *RoomPresenceTracker
	router   *MessageRouter
	fanout   *BroadcastFanout

	store store.Store
	log   *zerolog.Logger
}

// NewFacade wires the chat core components over a persistence gateway.
func NewFacade(st store.Store, logger *zerolog.Logger) *Facade {
	registry := NewConnectionRegistry()
	presence := NewRoomPresenceTracker(st, logger)
	return &Facade{
		registry: registry,
		presence: presence,
		router:   NewMessageRouter(st, logger),
		fanout:   NewBroadcastFanout(registry, presence, logger),
		store:    st,
		log:      logger,
	}
}

// Registry exposes the connection registry to collaborating layers.
func (f *Facade) Registry() *ConnectionRegistry { return f.registry }

// Presence exposes the presence tracker to collaborating layers.
func (f *Facade) Presence() *RoomPresenceTracker { return f.presence }

// Router exposes the message router to collaborating layers.
func (f *Facade) Router() *MessageRouter { return f.router }

// Fanout exposes the broadcast fan-out. The assistant collaborator injects
// AI replies through it directly.
func (f *Facade) Fanout() *BroadcastFanout { return f.fanout }

// Connect makes a new connection addressable for fan-out delivery.
func (f *Facade) Connect(conn *Conn) {
	f.fanout.Attach(conn)
	f.log.Debug().Str("conn_id", conn.ID).Msg("connection attached")
}

// Register records which user a connection speaks for. The ack goes to the
// sender only.
func (f *Facade) Register(_ context.Context, connID string, userID int64) error {
	if userID == 0 {
		return domainError(ErrCodeBadRequest, "userID is required")
	}
	f.registry.Register(connID, userID)
	f.log.Debug().Str("conn_id", connID).Int64("user_id", userID).Msg("connection registered")
	return nil
}

// JoinRoom binds the connection to an existing active room. Join is
// presence, not an announcement: no room-wide broadcast is emitted.
func (f *Facade) JoinRoom(ctx context.Context, connID string, roomID, userID int64) (*store.Participant, error) {
	if _, err := activeRoom(ctx, f.store, roomID); err != nil {
		return nil, err
	}
	participant, err := f.presence.Join(ctx, connID, roomID, userID)
	if err != nil {
		return nil, err
	}
	f.log.Debug().Str("conn_id", connID).Int64("room_id", roomID).Int64("user_id", userID).Msg("joined room")
	return participant, nil
}

// LeaveRoom unbinds the connection and deactivates the membership row.
func (f *Facade) LeaveRoom(ctx context.Context, connID string, roomID, userID int64) error {
	return f.presence.Leave(ctx, connID, roomID, userID)
}

// SendMessage persists the message, then broadcasts the enriched payload to
// every connection bound to the room, sender included. Persistence always
// precedes fan-out so broadcast order matches commit order; there is no
// direct ack.
func (f *Facade) SendMessage(ctx context.Context, roomID, userID int64, body string, kind store.MessageKind) (*EnrichedMessage, error) {
	msg, err := f.router.Send(ctx, roomID, userID, body, kind)
	if err != nil {
		return nil, err
	}
	f.fanout.ToRoom(roomID, EventNewMessage, msg)
	return msg, nil
}

// Disconnect tears down everything the connection accumulated: room
// binding (with durable cleanup), registry entry, and fan-out handle.
// Every step is idempotent, so racing an in-flight leave is safe.
func (f *Facade) Disconnect(ctx context.Context, connID string) {
	f.presence.OnDisconnect(ctx, connID)
	f.registry.Unregister(connID)
	f.fanout.Detach(connID)
	f.log.Debug().Str("conn_id", connID).Msg("connection detached")
}

package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// BroadcastFanout delivers an event to every connection bound to a room,
// or to every connection registered for a user. Delivery is best-effort
// per connection: one dead or slow consumer never aborts the rest of the
// fan-out.
type BroadcastFanout struct {
	mu    sync.RWMutex
	conns map[string]*Conn

	registry *ConnectionRegistry
	presence *RoomPresenceTracker
	log      *zerolog.Logger
}

// NewBroadcastFanout constructs a fan-out over the given membership sources.
func NewBroadcastFanout(registry *ConnectionRegistry, presence *RoomPresenceTracker, logger *zerolog.Logger) *BroadcastFanout {
	return &BroadcastFanout{
		conns:    make(map[string]*Conn),
		registry: registry,
		presence: presence,
		log:      logger,
	}
}

// Attach makes a connection handle addressable for delivery.
func (f *BroadcastFanout) Attach(conn *Conn) {
	f.mu.Lock()
	f.conns[conn.ID] = conn
	f.mu.Unlock()
}

// Detach removes a connection handle. Idempotent.
func (f *BroadcastFanout) Detach(connID string) {
	f.mu.Lock()
	delete(f.conns, connID)
	f.mu.Unlock()
}

// ToRoom delivers an event to all connections currently bound to the room,
// including the connection that caused the event: senders observe their own
// message via the broadcast round-trip, not via a direct acknowledgement.
func (f *BroadcastFanout) ToRoom(roomID int64, event string, payload any) {
	f.deliver(f.presence.Bound(roomID), Event{Name: event, Payload: payload})
}

// ToUser delivers an event to all connections registered for the user.
// An unknown user means deliver to nobody.
func (f *BroadcastFanout) ToUser(userID int64, event string, payload any) {
	f.deliver(f.registry.Connections(userID), Event{Name: event, Payload: payload})
}

// ToConn delivers an event to a single connection.
func (f *BroadcastFanout) ToConn(connID string, event string, payload any) {
	f.deliver([]string{connID}, Event{Name: event, Payload: payload})
}

func (f *BroadcastFanout) deliver(connIDs []string, event Event) {
	// Snapshot handles under the read lock, send outside it.
	targets := make([]*Conn, 0, len(connIDs))
	f.mu.RLock()
	for _, id := range connIDs {
		if conn, ok := f.conns[id]; ok {
			targets = append(targets, conn)
		}
	}
	f.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Events <- event:
		default:
			// Slow consumer: drop rather than block the fan-out.
			f.log.Warn().
				Str("conn_id", conn.ID).
				Str("event", event.Name).
				Msg("fanout: dropping event for slow consumer")
		}
	}
}

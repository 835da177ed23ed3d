package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/teamchat/teamchat-server/internal/store"
)

// binding is the in-memory association of a connection to the room it
// currently occupies. Derived cache only; the participant table is the
// source of truth for membership.
type binding struct {
	roomID int64
	userID int64
}

// RoomPresenceTracker owns the connection→room state machine and drives
// the durable participant rows on join, leave and disconnect.
type RoomPresenceTracker struct {
	mu       sync.RWMutex
	bindings map[string]binding

	store store.Store
	log   *zerolog.Logger
}

// NewRoomPresenceTracker constructs a tracker with no bindings.
func NewRoomPresenceTracker(st store.Store, logger *zerolog.Logger) *RoomPresenceTracker {
	return &RoomPresenceTracker{
		bindings: make(map[string]binding),
		store:    st,
		log:      logger,
	}
}

// Join binds the connection to the room and upserts the participant row.
// A zero userID binds the connection for fan-out only, without persisted
// membership (anonymous observer). Joining an already joined room is a
// duplicate-safe no-op returning the existing row.
func (t *RoomPresenceTracker) Join(ctx context.Context, connID string, roomID, userID int64) (*store.Participant, error) {
	var participant *store.Participant

	if userID != 0 {
		if err := t.checkCapacity(ctx, roomID, userID); err != nil {
			return nil, err
		}

		p, err := t.store.UpsertParticipant(ctx, roomID, userID)
		if err != nil {
			return nil, fmt.Errorf("upsert participant: %w", err)
		}
		participant = p
	}

	t.mu.Lock()
	t.bindings[connID] = binding{roomID: roomID, userID: userID}
	t.mu.Unlock()

	return participant, nil
}

// checkCapacity rejects a join when the room's member limit is reached,
// unless the user is already an active member (rejoin must stay idempotent).
func (t *RoomPresenceTracker) checkCapacity(ctx context.Context, roomID, userID int64) error {
	room, err := t.store.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(ErrCodeRoomNotFound, "room not found")
		}
		return fmt.Errorf("get room: %w", err)
	}
	if room.MaxMembers <= 0 {
		return nil
	}

	count, err := t.store.CountActiveParticipants(ctx, roomID)
	if err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	if count < room.MaxMembers {
		return nil
	}

	actives, err := t.store.ListActiveParticipants(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	for _, p := range actives {
		if p.UserID == userID {
			return nil
		}
	}
	return domainError(ErrCodeRoomFull, "room is full")
}

// Leave unbinds the connection from the room and marks the participant row
// inactive. Idempotent; the row is never deleted.
func (t *RoomPresenceTracker) Leave(ctx context.Context, connID string, roomID, userID int64) error {
	t.mu.Lock()
	if b, ok := t.bindings[connID]; ok && b.roomID == roomID {
		delete(t.bindings, connID)
	}
	t.mu.Unlock()

	if userID == 0 {
		return nil
	}
	if err := t.store.DeactivateParticipant(ctx, roomID, userID); err != nil {
		return fmt.Errorf("deactivate participant: %w", err)
	}
	return nil
}

// OnDisconnect performs the same cleanup as Leave using the remembered
// binding. Safe to invoke any number of times, and safe to race an
// explicit Leave for the same connection: once the binding is gone this is
// a no-op. A failed durable write is logged and tolerated so in-memory
// presence never leaks.
func (t *RoomPresenceTracker) OnDisconnect(ctx context.Context, connID string) {
	t.mu.Lock()
	b, ok := t.bindings[connID]
	if ok {
		delete(t.bindings, connID)
	}
	t.mu.Unlock()

	if !ok || b.userID == 0 {
		return
	}

	if err := t.store.DeactivateParticipant(ctx, b.roomID, b.userID); err != nil {
		t.log.Warn().Err(err).
			Str("conn_id", connID).
			Int64("room_id", b.roomID).
			Int64("user_id", b.userID).
			Msg("disconnect cleanup: participant deactivation failed")
	}
}

// AddMember upserts durable membership without a connection binding. The
// CRUD layer invites users this way; they gain fan-out delivery only once
// a connection of theirs joins the room.
func (t *RoomPresenceTracker) AddMember(ctx context.Context, roomID, userID int64) (*store.Participant, error) {
	if _, err := activeRoom(ctx, t.store, roomID); err != nil {
		return nil, err
	}
	if err := t.checkCapacity(ctx, roomID, userID); err != nil {
		return nil, err
	}
	p, err := t.store.UpsertParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("upsert participant: %w", err)
	}
	return p, nil
}

// RemoveMember deactivates durable membership without touching any
// connection binding. Idempotent.
func (t *RoomPresenceTracker) RemoveMember(ctx context.Context, roomID, userID int64) error {
	if err := t.store.DeactivateParticipant(ctx, roomID, userID); err != nil {
		return fmt.Errorf("deactivate participant: %w", err)
	}
	return nil
}

// Binding returns the connection's current room binding, if any.
func (t *RoomPresenceTracker) Binding(connID string) (roomID, userID int64, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, ok := t.bindings[connID]
	return b.roomID, b.userID, ok
}

// Bound returns a snapshot of all connection ids currently bound to a room.
func (t *RoomPresenceTracker) Bound(roomID int64) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var conns []string
	for id, b := range t.bindings {
		if b.roomID == roomID {
			conns = append(conns, id)
		}
	}
	return conns
}

// ListParticipants reads all active participant rows for a room joined
// with user display attributes.
func (t *RoomPresenceTracker) ListParticipants(ctx context.Context, roomID int64) ([]*store.ParticipantInfo, error) {
	return t.store.ListActiveParticipants(ctx, roomID)
}

// UpdateLastRead sets the participant's last-read timestamp to now. It does
// not affect binding state.
func (t *RoomPresenceTracker) UpdateLastRead(ctx context.Context, roomID, userID int64) error {
	return t.store.TouchLastRead(ctx, roomID, userID)
}

// MoveRoom reparents a room. Purely a persistence update, but it shares the
// room-identity validation path with presence operations.
func (t *RoomPresenceTracker) MoveRoom(ctx context.Context, roomID int64, teamID *int64) (*store.Room, error) {
	if _, err := activeRoom(ctx, t.store, roomID); err != nil {
		return nil, err
	}
	return t.store.MoveRoom(ctx, roomID, teamID)
}

// activeRoom fetches a room and rejects missing or soft-deleted ones with
// domain errors.
func activeRoom(ctx context.Context, st store.RoomStore, roomID int64) (*store.Room, error) {
	room, err := st.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainError(ErrCodeRoomNotFound, "room not found")
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	if !room.IsActive {
		return nil, domainError(ErrCodeRoomInactive, "room is not active")
	}
	return room, nil
}

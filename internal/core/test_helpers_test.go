package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/teamchat/teamchat-server/internal/store"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// mustEvent polls a connection's event channel for an event with the given
// name, skipping others.
func mustEvent(t *testing.T, ch <-chan Event, name string) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Name == name {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event %q not received", name)
	return Event{}
}

func noEvent(t *testing.T, ch <-chan Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %q", ev.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

type participantKey struct {
	roomID int64
	userID int64
}

// memStore is an in-memory store.Store for core tests.
type memStore struct {
	mu           sync.Mutex
	users        map[int64]*store.User
	rooms        map[int64]*store.Room
	participants map[participantKey]*store.Participant
	messages     []*store.Message
	nextID       int64

	deactivateErr error // injected failure for disconnect cleanup tests
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int64]*store.User),
		rooms:        make(map[int64]*store.Room),
		participants: make(map[participantKey]*store.Participant),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateUser(_ context.Context, name, avatar string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := &store.User{ID: m.id(), Name: name, Avatar: avatar, CreatedAt: time.Now()}
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (m *memStore) CreateRoom(_ context.Context, name string, kind store.RoomKind, teamID *int64, maxMembers int) (*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if kind == "" {
		kind = store.RoomKindGeneral
	}
	room := &store.Room{
		ID:         m.id(),
		TeamID:     teamID,
		Name:       name,
		Kind:       kind,
		MaxMembers: maxMembers,
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memStore) GetRoomByID(_ context.Context, id int64) (*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
	}
	copied := *room
	return &copied, nil
}

func (m *memStore) ListRooms(_ context.Context, teamID *int64) ([]*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rooms []*store.Room
	for _, room := range m.rooms {
		if !room.IsActive {
			continue
		}
		if teamID != nil && (room.TeamID == nil || *room.TeamID != *teamID) {
			continue
		}
		copied := *room
		rooms = append(rooms, &copied)
	}
	return rooms, nil
}

func (m *memStore) UpdateRoom(_ context.Context, id int64, name string, maxMembers int) (*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	room.Name = name
	room.MaxMembers = maxMembers
	copied := *room
	return &copied, nil
}

func (m *memStore) DeactivateRoom(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return store.ErrNotFound
	}
	room.IsActive = false
	return nil
}

func (m *memStore) MoveRoom(_ context.Context, id int64, teamID *int64) (*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	room.TeamID = teamID
	copied := *room
	return &copied, nil
}

func (m *memStore) UpsertParticipant(_ context.Context, roomID, userID int64) (*store.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := participantKey{roomID, userID}
	if p, ok := m.participants[key]; ok {
		if !p.IsActive {
			p.IsActive = true
			p.JoinedAt = time.Now()
		}
		copied := *p
		return &copied, nil
	}
	p := &store.Participant{
		ID:       m.id(),
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now(),
		IsActive: true,
	}
	m.participants[key] = p
	copied := *p
	return &copied, nil
}

func (m *memStore) DeactivateParticipant(_ context.Context, roomID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deactivateErr != nil {
		return m.deactivateErr
	}
	if p, ok := m.participants[participantKey{roomID, userID}]; ok {
		p.IsActive = false
	}
	return nil
}

func (m *memStore) ListActiveParticipants(_ context.Context, roomID int64) ([]*store.ParticipantInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var infos []*store.ParticipantInfo
	for _, p := range m.participants {
		if p.RoomID != roomID || !p.IsActive {
			continue
		}
		info := &store.ParticipantInfo{Participant: *p}
		if user, ok := m.users[p.UserID]; ok {
			info.UserName = user.Name
			info.UserAvatar = user.Avatar
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (m *memStore) CountActiveParticipants(ctx context.Context, roomID int64) (int, error) {
	infos, err := m.ListActiveParticipants(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return len(infos), nil
}

func (m *memStore) TouchLastRead(_ context.Context, roomID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[participantKey{roomID, userID}]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	p.LastReadAt = &now
	return nil
}

func (m *memStore) SaveMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.ID = m.id()
	copied := *msg
	m.messages = append(m.messages, &copied)
	return nil
}

func (m *memStore) ListMessages(_ context.Context, roomID int64, limit, offset int) ([]*store.AuthoredMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*store.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].RoomID == roomID {
			matched = append(matched, m.messages[i])
		}
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}

	var out []*store.AuthoredMessage
	for _, msg := range matched {
		am := &store.AuthoredMessage{Message: *msg}
		if msg.UserID != nil {
			if user, ok := m.users[*msg.UserID]; ok {
				am.AuthorName = &user.Name
				am.AuthorAvatar = &user.Avatar
			}
		}
		out = append(out, am)
	}
	return out, nil
}

func (m *memStore) ClearMessages(_ context.Context, roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []*store.Message
	for _, msg := range m.messages {
		if msg.RoomID != roomID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) participant(t *testing.T, roomID, userID int64) *store.Participant {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[participantKey{roomID, userID}]
	if !ok {
		t.Fatalf("participant (%d,%d) not found", roomID, userID)
	}
	copied := *p
	return &copied
}

func (m *memStore) participantCount(roomID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, p := range m.participants {
		if p.RoomID == roomID {
			count++
		}
	}
	return count
}

var _ store.Store = (*memStore)(nil)

var errInjected = errors.New("injected failure")

func asDomainError(err error, target **Error) bool {
	return errors.As(err, target)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/teamchat/teamchat-server/internal/store"
)

// newTestStore opens an in-memory database and exposes the raw handle for
// row-level assertions.
func newTestStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()

	var raw *sql.DB
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		raw = db
		return nil
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, raw
}

func TestUserNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetUserByID(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "a.png")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "alice" || got.Avatar != "a.png" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestRoomLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "general", "", nil, 0)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.Kind != store.RoomKindGeneral {
		t.Fatalf("expected default kind general, got %q", room.Kind)
	}
	if !room.IsActive {
		t.Fatal("expected new room to be active")
	}

	updated, err := s.UpdateRoom(ctx, room.ID, "renamed", 10)
	if err != nil {
		t.Fatalf("update room: %v", err)
	}
	if updated.Name != "renamed" || updated.MaxMembers != 10 {
		t.Fatalf("unexpected room after update: %+v", updated)
	}

	if err := s.DeactivateRoom(ctx, room.ID); err != nil {
		t.Fatalf("deactivate room: %v", err)
	}

	// Soft delete: the row survives but drops out of listings.
	got, err := s.GetRoomByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room after deactivate: %v", err)
	}
	if got.IsActive {
		t.Fatal("expected room to be inactive")
	}
	rooms, err := s.ListRooms(ctx, nil)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("expected no active rooms, got %d", len(rooms))
	}
}

func TestListRoomsByTeam(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	teamA := int64(1)
	teamB := int64(2)
	if _, err := s.CreateRoom(ctx, "a1", "", &teamA, 0); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.CreateRoom(ctx, "a2", store.RoomKindAI, &teamA, 0); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.CreateRoom(ctx, "b1", "", &teamB, 0); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.CreateRoom(ctx, "detached", "", nil, 0); err != nil {
		t.Fatalf("create room: %v", err)
	}

	rooms, err := s.ListRooms(ctx, &teamA)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms for team, got %d", len(rooms))
	}

	all, err := s.ListRooms(ctx, nil)
	if err != nil {
		t.Fatalf("list all rooms: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rooms, got %d", len(all))
	}
}

func TestMoveRoom(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	teamA := int64(1)
	room, err := s.CreateRoom(ctx, "general", "", &teamA, 0)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	teamB := int64(2)
	moved, err := s.MoveRoom(ctx, room.ID, &teamB)
	if err != nil {
		t.Fatalf("move room: %v", err)
	}
	if moved.TeamID == nil || *moved.TeamID != teamB {
		t.Fatalf("expected team %d, got %v", teamB, moved.TeamID)
	}

	detached, err := s.MoveRoom(ctx, room.ID, nil)
	if err != nil {
		t.Fatalf("detach room: %v", err)
	}
	if detached.TeamID != nil {
		t.Fatalf("expected detached room, got team %v", detached.TeamID)
	}

	if _, err := s.MoveRoom(ctx, 9999, &teamA); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing room, got %v", err)
	}
}

func TestParticipantUpsertReactivation(t *testing.T) {
	s, raw := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	room, err := s.CreateRoom(ctx, "general", "", nil, 0)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	first, err := s.UpsertParticipant(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !first.IsActive {
		t.Fatal("expected active participant")
	}

	if err := s.DeactivateParticipant(ctx, room.ID, user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	second, err := s.UpsertParticipant(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected reactivated row to keep id %d, got %d", first.ID, second.ID)
	}
	if !second.IsActive {
		t.Fatal("expected participant to be active after rejoin")
	}

	// Whole lifecycle touched exactly one row.
	var count int
	if err := raw.QueryRow(
		`SELECT COUNT(*) FROM room_participants WHERE room_id = ? AND user_id = ?`,
		room.ID, user.ID,
	).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single participant row, got %d", count)
	}
}

func TestDeactivateParticipantIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.DeactivateParticipant(ctx, 1, 1); err != nil {
		t.Fatalf("deactivate absent participant: %v", err)
	}
	if err := s.DeactivateParticipant(ctx, 1, 1); err != nil {
		t.Fatalf("deactivate again: %v", err)
	}
}

func TestListActiveParticipantsJoinsUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "a.png")
	bob, _ := s.CreateUser(ctx, "bob", "")
	room, _ := s.CreateRoom(ctx, "general", "", nil, 0)

	if _, err := s.UpsertParticipant(ctx, room.ID, alice.ID); err != nil {
		t.Fatalf("upsert alice: %v", err)
	}
	if _, err := s.UpsertParticipant(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("upsert bob: %v", err)
	}
	if err := s.DeactivateParticipant(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("deactivate bob: %v", err)
	}

	participants, err := s.ListActiveParticipants(ctx, room.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected 1 active participant, got %d", len(participants))
	}
	if participants[0].UserName != "alice" || participants[0].UserAvatar != "a.png" {
		t.Fatalf("unexpected participant: %+v", participants[0])
	}

	count, err := s.CountActiveParticipants(ctx, room.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestTouchLastRead(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	user, _ := s.CreateUser(ctx, "alice", "")
	room, _ := s.CreateRoom(ctx, "general", "", nil, 0)
	if _, err := s.UpsertParticipant(ctx, room.ID, user.ID); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.TouchLastRead(ctx, room.ID, user.ID); err != nil {
		t.Fatalf("touch last read: %v", err)
	}

	p, err := s.getParticipant(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p.LastReadAt == nil {
		t.Fatal("expected last_read_at to be set")
	}

	if err := s.TouchLastRead(ctx, room.ID, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent participant, got %v", err)
	}
}

func TestMessagesNewestFirstWithAuthors(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	user, _ := s.CreateUser(ctx, "alice", "a.png")
	room, _ := s.CreateRoom(ctx, "general", "", nil, 0)

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		msg := &store.Message{
			RoomID:    room.ID,
			UserID:    &user.ID,
			Kind:      store.MessageKindChat,
			Body:      body,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save %q: %v", body, err)
		}
		if msg.ID == 0 {
			t.Fatalf("expected id assigned for %q", body)
		}
	}
	// System message without an author.
	if err := s.SaveMessage(ctx, &store.Message{
		RoomID:    room.ID,
		Kind:      store.MessageKindSystem,
		Body:      "notice",
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save system message: %v", err)
	}

	messages, err := s.ListMessages(ctx, room.ID, 50, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Body != "notice" || messages[3].Body != "first" {
		t.Fatalf("expected newest-first ordering, got %q .. %q", messages[0].Body, messages[3].Body)
	}
	if messages[0].AuthorName != nil {
		t.Fatalf("expected no author for system message, got %v", *messages[0].AuthorName)
	}
	if messages[1].AuthorName == nil || *messages[1].AuthorName != "alice" {
		t.Fatalf("expected author alice, got %v", messages[1].AuthorName)
	}

	page, err := s.ListMessages(ctx, room.ID, 2, 1)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].Body != "third" || page[1].Body != "second" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestClearMessagesScopedToRoom(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	room1, _ := s.CreateRoom(ctx, "one", "", nil, 0)
	room2, _ := s.CreateRoom(ctx, "two", "", nil, 0)

	for _, roomID := range []int64{room1.ID, room2.ID} {
		if err := s.SaveMessage(ctx, &store.Message{
			RoomID:    roomID,
			Kind:      store.MessageKindChat,
			Body:      "hello",
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}

	if err := s.ClearMessages(ctx, room1.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	left, err := s.ListMessages(ctx, room1.ID, 50, 0)
	if err != nil {
		t.Fatalf("list room1: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected room1 empty, got %d", len(left))
	}
	other, err := s.ListMessages(ctx, room2.ID, 50, 0)
	if err != nil {
		t.Fatalf("list room2: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("expected room2 untouched, got %d", len(other))
	}
}

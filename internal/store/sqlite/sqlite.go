package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/teamchat/teamchat-server/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function after
// the schema is applied. Useful for tests to seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with display attributes.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, avatar string) (*store.User, error) {
	query := `
		INSERT INTO users (name, avatar)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, avatar)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, name, avatar, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== RoomStore implementation ====

// CreateRoom creates a new active room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string, kind store.RoomKind, teamID *int64, maxMembers int) (*store.Room, error) {
	if kind == "" {
		kind = store.RoomKindGeneral
	}

	query := `
		INSERT INTO rooms (team_id, name, kind, max_members)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, teamID, name, string(kind), maxMembers)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetRoomByID(ctx, id)
}

// GetRoomByID retrieves a room by ID regardless of its active flag.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `
		SELECT id, team_id, name, kind, max_members, is_active, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`
	room, err := scanRoom(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return room, nil
}

// ListRooms lists active rooms, optionally filtered by team.
func (s *SQLiteStore) ListRooms(ctx context.Context, teamID *int64) ([]*store.Room, error) {
	query := `
		SELECT id, team_id, name, kind, max_members, is_active, created_at, updated_at
		FROM rooms
		WHERE is_active = 1
	`
	args := []any{}
	if teamID != nil {
		query += ` AND team_id = ?`
		args = append(args, *teamID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// UpdateRoom updates a room's name and max member count.
func (s *SQLiteStore) UpdateRoom(ctx context.Context, id int64, name string, maxMembers int) (*store.Room, error) {
	query := `
		UPDATE rooms
		SET name = ?, max_members = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, name, maxMembers, id)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
	}

	return s.GetRoomByID(ctx, id)
}

// DeactivateRoom soft-deletes a room.
func (s *SQLiteStore) DeactivateRoom(ctx context.Context, id int64) error {
	query := `
		UPDATE rooms
		SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("room %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// MoveRoom reparents a room to another team (nil detaches it).
func (s *SQLiteStore) MoveRoom(ctx context.Context, id int64, teamID *int64) (*store.Room, error) {
	query := `
		UPDATE rooms
		SET team_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, teamID, id)
	if err != nil {
		return nil, fmt.Errorf("move room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
	}

	return s.GetRoomByID(ctx, id)
}

// ==== ParticipantStore implementation ====

// UpsertParticipant ensures an active participant row for (room, user).
// The UNIQUE(room_id, user_id) constraint resolves concurrent joins: the
// conflict clause reactivates an inactive row with a fresh join timestamp
// and leaves an already active row untouched.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, roomID, userID int64) (*store.Participant, error) {
	query := `
		INSERT INTO room_participants (room_id, user_id)
		VALUES (?, ?)
		ON CONFLICT (room_id, user_id) DO UPDATE SET
			joined_at = CASE WHEN room_participants.is_active = 0 THEN CURRENT_TIMESTAMP ELSE room_participants.joined_at END,
			is_active = 1
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, userID); err != nil {
		return nil, fmt.Errorf("upsert participant: %w", err)
	}

	return s.getParticipant(ctx, roomID, userID)
}

func (s *SQLiteStore) getParticipant(ctx context.Context, roomID, userID int64) (*store.Participant, error) {
	query := `
		SELECT id, room_id, user_id, joined_at, last_read_at, is_active
		FROM room_participants
		WHERE room_id = ? AND user_id = ?
	`
	var p store.Participant
	var lastRead sql.NullTime
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&p.ID,
		&p.RoomID,
		&p.UserID,
		&p.JoinedAt,
		&lastRead,
		&p.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("participant (%d,%d): %w", roomID, userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query participant: %w", err)
	}
	if lastRead.Valid {
		p.LastReadAt = &lastRead.Time
	}

	return &p, nil
}

// DeactivateParticipant marks the participant inactive. It is a no-op if the
// row is absent or already inactive, which keeps leave and disconnect
// cleanup idempotent.
func (s *SQLiteStore) DeactivateParticipant(ctx context.Context, roomID, userID int64) error {
	query := `
		UPDATE room_participants
		SET is_active = 0
		WHERE room_id = ? AND user_id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("deactivate participant: %w", err)
	}
	return nil
}

// ListActiveParticipants lists active participants of a room joined with
// user display attributes.
func (s *SQLiteStore) ListActiveParticipants(ctx context.Context, roomID int64) ([]*store.ParticipantInfo, error) {
	query := `
		SELECT p.id, p.room_id, p.user_id, p.joined_at, p.last_read_at, p.is_active, u.name, u.avatar
		FROM room_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = ? AND p.is_active = 1
		ORDER BY p.joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []*store.ParticipantInfo
	for rows.Next() {
		var info store.ParticipantInfo
		var lastRead sql.NullTime
		if err := rows.Scan(
			&info.ID,
			&info.RoomID,
			&info.UserID,
			&info.JoinedAt,
			&lastRead,
			&info.IsActive,
			&info.UserName,
			&info.UserAvatar,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		if lastRead.Valid {
			info.LastReadAt = &lastRead.Time
		}
		participants = append(participants, &info)
	}

	return participants, rows.Err()
}

// CountActiveParticipants returns the number of active participants.
func (s *SQLiteStore) CountActiveParticipants(ctx context.Context, roomID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM room_participants
		WHERE room_id = ? AND is_active = 1
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, roomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

// TouchLastRead sets the participant's last-read timestamp to now.
func (s *SQLiteStore) TouchLastRead(ctx context.Context, roomID, userID int64) error {
	query := `
		UPDATE room_participants
		SET last_read_at = CURRENT_TIMESTAMP
		WHERE room_id = ? AND user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("touch last read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("participant (%d,%d): %w", roomID, userID, store.ErrNotFound)
	}
	return nil
}

// ==== MessageStore implementation ====

// SaveMessage appends a message and fills in its ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (room_id, user_id, kind, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.RoomID, msg.UserID, string(msg.Kind), msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListMessages retrieves messages for a room ordered newest-first, joined
// with author display attributes.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]*store.AuthoredMessage, error) {
	query := `
		SELECT m.id, m.room_id, m.user_id, m.kind, m.body, m.created_at, u.name, u.avatar
		FROM messages m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.room_id = ?
		ORDER BY m.id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.AuthoredMessage
	for rows.Next() {
		var msg store.AuthoredMessage
		var userID sql.NullInt64
		var kind string
		var name, avatar sql.NullString
		if err := rows.Scan(&msg.ID, &msg.RoomID, &userID, &kind, &msg.Body, &msg.CreatedAt, &name, &avatar); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Kind = store.MessageKind(kind)
		if userID.Valid {
			msg.UserID = &userID.Int64
		}
		if name.Valid {
			msg.AuthorName = &name.String
		}
		if avatar.Valid {
			msg.AuthorAvatar = &avatar.String
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ClearMessages deletes all messages for a room. Destructive.
func (s *SQLiteStore) ClearMessages(ctx context.Context, roomID int64) error {
	query := `DELETE FROM messages WHERE room_id = ?`
	if _, err := s.db.ExecContext(ctx, query, roomID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*store.Room, error) {
	var room store.Room
	var teamID sql.NullInt64
	var kind string
	if err := row.Scan(
		&room.ID,
		&teamID,
		&room.Name,
		&kind,
		&room.MaxMembers,
		&room.IsActive,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	room.Kind = store.RoomKind(kind)
	if teamID.Valid {
		room.TeamID = &teamID.Int64
	}
	return &room, nil
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)

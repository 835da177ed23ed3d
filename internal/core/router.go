package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/teamchat/teamchat-server/internal/store"
)

// DefaultHistoryLimit is used when the caller does not specify a page size.
const DefaultHistoryLimit = 50

// MessageRouter validates, persists and enriches chat messages before they
// are handed to the fan-out.
type MessageRouter struct {
	store store.Store
	log   *zerolog.Logger
}

// NewMessageRouter constructs a router backed by the given store.
func NewMessageRouter(st store.Store, logger *zerolog.Logger) *MessageRouter {
	return &MessageRouter{store: st, log: logger}
}

// Send persists a new message and attaches author display data. The message
// is committed before any enrichment: a failed author lookup (e.g. a
// deleted user) yields a nil author, never a lost message.
func (r *MessageRouter) Send(ctx context.Context, roomID, userID int64, body string, kind store.MessageKind) (*EnrichedMessage, error) {
	if body == "" {
		return nil, domainError(ErrCodeBadRequest, "message body must not be empty")
	}
	if kind == "" {
		kind = store.MessageKindChat
	}

	msg := &store.Message{
		RoomID:    roomID,
		Kind:      kind,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if userID != 0 {
		msg.UserID = &userID
	}

	if err := r.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	enriched := enrich(msg, nil)
	if msg.UserID != nil {
		user, err := r.store.GetUserByID(ctx, *msg.UserID)
		if err != nil {
			r.log.Debug().Err(err).
				Int64("message_id", msg.ID).
				Int64("user_id", *msg.UserID).
				Msg("author enrichment failed, delivering without author")
		} else {
			enriched.Author = &Author{ID: user.ID, Name: user.Name, Avatar: user.Avatar}
		}
	}

	return enriched, nil
}

// History returns messages for a room ordered newest-first, each enriched
// with author display data, for reverse-chronological pagination.
func (r *MessageRouter) History(ctx context.Context, roomID int64, limit, offset int) ([]*EnrichedMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.store.ListMessages(ctx, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]*EnrichedMessage, 0, len(rows))
	for _, row := range rows {
		var author *Author
		if row.UserID != nil && row.AuthorName != nil {
			author = &Author{ID: *row.UserID, Name: *row.AuthorName}
			if row.AuthorAvatar != nil {
				author.Avatar = *row.AuthorAvatar
			}
		}
		messages = append(messages, enrich(&row.Message, author))
	}

	return messages, nil
}

// Clear deletes all messages for a room. Destructive and not reversible;
// restricting it to privileged callers is the outer layer's concern.
func (r *MessageRouter) Clear(ctx context.Context, roomID int64) error {
	if err := r.store.ClearMessages(ctx, roomID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

func enrich(msg *store.Message, author *Author) *EnrichedMessage {
	return &EnrichedMessage{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		UserID:    msg.UserID,
		Kind:      string(msg.Kind),
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.Unix(),
		Author:    author,
	}
}

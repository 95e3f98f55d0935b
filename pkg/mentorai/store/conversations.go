package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindOrCreateConversation returns the user's conversation, creating it with
// the given title when absent. Runs in a single transaction; combined with
// the unique index on user_id, concurrent first messages cannot produce two
// threads.
func (s *Store) FindOrCreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	var conv Conversation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id, user_id, title, created_at FROM conversations WHERE user_id = ?`,
			userID,
		).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find conversation: %w", err)
		}

		conv = Conversation{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     title,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
			conv.ID, conv.UserID, conv.Title, conv.CreatedAt,
		); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessage appends a chat message to a conversation.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, sender Sender, message string) (*ChatMessage, error) {
	msg := &ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, conversation_id, sender, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Sender, msg.Message, msg.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// RecentMessages returns the last n messages of a conversation in ascending
// creation order — the rolling context window sent to the LLM.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, n int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender, message, created_at
		 FROM (
			SELECT id, conversation_id, sender, message, created_at, rowid
			FROM chat_messages
			WHERE conversation_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		 ) ORDER BY created_at ASC, rowid ASC`,
		conversationID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// LastMessageAt returns the creation time of the user's most recent chat
// message, ErrNotFound when the user has never written or received one.
func (s *Store) LastMessageAt(ctx context.Context, userID string) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT m.created_at
		 FROM chat_messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE c.user_id = ?
		 ORDER BY m.created_at DESC, m.rowid DESC
		 LIMIT 1`, userID,
	).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last message at: %w", err)
	}
	return at, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BotTurn describes everything a single interpreted LLM response should
// persist: the bot reply plus any side-effect records. All writes commit in
// one transaction — a crash mid-sequence leaves no partial state.
type BotTurn struct {
	ConversationID string
	UserID         string
	Reply          string

	Reminder  *ReminderInput
	Goal      *GoalInput
	LifeAreas []LifeAreaInput
	Journal   *JournalInput
	Event     *EventInput
}

// ReminderInput is a reminder side effect. RemindAt stays nil when date
// extraction failed.
type ReminderInput struct {
	Message  string
	RemindAt *time.Time
}

// GoalInput is a goal side effect. It also upserts the named life area and
// appends a sub goal linked to the bot message.
type GoalInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	AreaName    string
}

// LifeAreaInput upserts an area and appends a sub goal under it.
type LifeAreaInput struct {
	Name    string
	SubArea string
	Color   string
}

// JournalInput is a journal side effect.
type JournalInput struct {
	Content  string
	Emoji    string
	Category string
}

// EventInput is a calendar event side effect.
type EventInput struct {
	Title       string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
}

// RecordBotTurn writes the bot chat message and every side effect of one
// interpreted response atomically, returning the persisted bot message.
func (s *Store) RecordBotTurn(ctx context.Context, turn BotTurn) (*ChatMessage, error) {
	msg := &ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: turn.ConversationID,
		Sender:         SenderBot,
		Message:        turn.Reply,
		CreatedAt:      time.Now().UTC(),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (id, conversation_id, sender, message, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			msg.ID, msg.ConversationID, msg.Sender, msg.Message, msg.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert bot message: %w", err)
		}

		if r := turn.Reminder; r != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO reminders (id, user_id, message, remind_at, created_at)
				 VALUES (?, ?, ?, ?, ?)`,
				uuid.NewString(), turn.UserID, r.Message, r.RemindAt, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("insert reminder: %w", err)
			}
		}

		if g := turn.Goal; g != nil {
			area, err := upsertLifeAreaTx(ctx, tx, turn.UserID, g.AreaName, "")
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO goals (id, user_id, title, description, due_date, life_area_id, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), turn.UserID, g.Title, g.Description, g.DueDate, area.ID, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("insert goal: %w", err)
			}
			if err := insertSubGoalTx(ctx, tx, area.ID, g.Title, msg.ID); err != nil {
				return err
			}
		}

		for _, la := range turn.LifeAreas {
			area, err := upsertLifeAreaTx(ctx, tx, turn.UserID, la.Name, la.Color)
			if err != nil {
				return err
			}
			name := la.SubArea
			if name == "" {
				name = la.Name
			}
			if err := insertSubGoalTx(ctx, tx, area.ID, name, msg.ID); err != nil {
				return err
			}
		}

		if j := turn.Journal; j != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO journals (id, user_id, content, emoji, category, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), turn.UserID, j.Content, j.Emoji, j.Category, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("insert journal: %w", err)
			}
		}

		if e := turn.Event; e != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO calendar_events (id, user_id, title, description, start_time, end_time, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), turn.UserID, e.Title, e.Description, e.StartTime, e.EndTime, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("insert calendar event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateReminder inserts a reminder. RemindAt may be nil when date
// extraction failed — the reminder is stored anyway, it just never becomes
// due.
func (s *Store) CreateReminder(ctx context.Context, userID, message string, remindAt *time.Time) (*Reminder, error) {
	r := &Reminder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		RemindAt:  remindAt,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, user_id, message, remind_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Message, r.RemindAt, r.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// ListReminders returns a user's reminders, newest first.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message, remind_at, is_sent, is_completed, created_at
		 FROM reminders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// GetReminder returns a reminder by ID.
func (s *Store) GetReminder(ctx context.Context, id string) (*Reminder, error) {
	var r Reminder
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, message, remind_at, is_sent, is_completed, created_at
		 FROM reminders WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &r.Message, &r.RemindAt, &r.IsSent, &r.IsCompleted, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return &r, nil
}

// CompleteReminder marks a reminder as completed.
func (s *Store) CompleteReminder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET is_completed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("complete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReminder removes a reminder.
func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimDueReminders marks every due, unsent reminder as sent and returns the
// claimed rows. Selecting and flipping the flag happen in one transaction,
// so a reminder can only ever be claimed by a single sweep tick: a crash
// after the commit loses the notification rather than duplicating it.
func (s *Store) ClaimDueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	var claimed []Reminder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, user_id, message, remind_at, is_sent, is_completed, created_at
			 FROM reminders
			 WHERE is_sent = 0 AND is_completed = 0 AND remind_at IS NOT NULL AND remind_at <= ?
			 ORDER BY remind_at`, now)
		if err != nil {
			return fmt.Errorf("select due reminders: %w", err)
		}
		claimed, err = scanReminders(rows)
		rows.Close()
		if err != nil {
			return err
		}
		for i := range claimed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE reminders SET is_sent = 1 WHERE id = ?`, claimed[i].ID,
			); err != nil {
				return fmt.Errorf("mark reminder sent: %w", err)
			}
			claimed[i].IsSent = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func scanReminders(rows *sql.Rows) ([]Reminder, error) {
	var out []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.Message, &r.RemindAt, &r.IsSent, &r.IsCompleted, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

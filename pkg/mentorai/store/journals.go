package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateJournal inserts a journal entry.
func (s *Store) CreateJournal(ctx context.Context, j Journal) (*Journal, error) {
	j.ID = uuid.NewString()
	j.CreatedAt = time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO journals (id, user_id, content, emoji, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.Content, j.Emoji, j.Category, j.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert journal: %w", err)
	}
	return &j, nil
}

// ListJournals returns a user's journal entries, newest first.
func (s *Store) ListJournals(ctx context.Context, userID string) ([]Journal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, emoji, category, created_at
		 FROM journals WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	defer rows.Close()

	var out []Journal
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.ID, &j.UserID, &j.Content, &j.Emoji, &j.Category, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// DeleteJournal removes a journal entry.
func (s *Store) DeleteJournal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateCalendarEvent inserts a calendar event.
func (s *Store) CreateCalendarEvent(ctx context.Context, e CalendarEvent) (*CalendarEvent, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, user_id, title, description, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Description, e.StartTime, e.EndTime, e.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	return &e, nil
}

// ListCalendarEvents returns a user's events ordered by start time.
func (s *Store) ListCalendarEvents(ctx context.Context, userID string) ([]CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, start_time, end_time, created_at
		 FROM calendar_events WHERE user_id = ? ORDER BY start_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var out []CalendarEvent
	for rows.Next() {
		var e CalendarEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteCalendarEvent removes an event.
func (s *Store) DeleteCalendarEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// areaPalette is the fixed color palette assigned to a user's first areas.
var areaPalette = []string{"#F97316", "#8B5CF6", "#10B981", "#3B82F6", "#EC4899", "#F59E0B"}

// pickAreaColor returns a palette entry for the first areas a user creates
// and a random hex afterwards.
func pickAreaColor(existing int) string {
	if existing < len(areaPalette) {
		return areaPalette[existing]
	}
	return fmt.Sprintf("#%06X", rand.Intn(0x1000000))
}

// CreateGoal inserts a goal. DueDate may be nil.
func (s *Store) CreateGoal(ctx context.Context, g Goal) (*Goal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, due_date, life_area_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description, g.DueDate, g.LifeAreaID, g.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return &g, nil
}

// ListGoals returns a user's goals, newest first.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, due_date, life_area_id, created_at
		 FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.DueDate, &g.LifeAreaID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLifeAreas returns a user's life areas.
func (s *Store) ListLifeAreas(ctx context.Context, userID string) ([]LifeArea, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM life_areas WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list life areas: %w", err)
	}
	defer rows.Close()

	var out []LifeArea
	for rows.Next() {
		var a LifeArea
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Color); err != nil {
			return nil, fmt.Errorf("scan life area: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListSubGoals returns the sub goals of a life area, oldest first.
func (s *Store) ListSubGoals(ctx context.Context, lifeAreaID string) ([]SubGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, life_area_id, name, chat_message_id, created_at
		 FROM life_area_sub_goals WHERE life_area_id = ? ORDER BY created_at`, lifeAreaID)
	if err != nil {
		return nil, fmt.Errorf("list sub goals: %w", err)
	}
	defer rows.Close()

	var out []SubGoal
	for rows.Next() {
		var sg SubGoal
		if err := rows.Scan(&sg.ID, &sg.LifeAreaID, &sg.Name, &sg.ChatMessageID, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sub goal: %w", err)
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// upsertLifeAreaTx finds or creates a life area keyed by (user_id, name)
// inside an open transaction. Color is taken from the caller when provided,
// otherwise from the palette rotation.
func upsertLifeAreaTx(ctx context.Context, tx *sql.Tx, userID, name, color string) (*LifeArea, error) {
	if name == "" {
		name = "General"
	}

	var area LifeArea
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, name, color FROM life_areas WHERE user_id = ? AND name = ?`,
		userID, name,
	).Scan(&area.ID, &area.UserID, &area.Name, &area.Color)
	if err == nil {
		return &area, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find life area: %w", err)
	}

	if color == "" {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM life_areas WHERE user_id = ?`, userID,
		).Scan(&count); err != nil {
			return nil, fmt.Errorf("count life areas: %w", err)
		}
		color = pickAreaColor(count)
	}

	area = LifeArea{ID: uuid.NewString(), UserID: userID, Name: name, Color: color}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO life_areas (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
		area.ID, area.UserID, area.Name, area.Color,
	); err != nil {
		return nil, fmt.Errorf("insert life area: %w", err)
	}
	return &area, nil
}

// insertSubGoalTx appends a sub goal under a life area inside an open
// transaction. chatMessageID is best-effort linkage and may be empty.
func insertSubGoalTx(ctx context.Context, tx *sql.Tx, lifeAreaID, name, chatMessageID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO life_area_sub_goals (id, life_area_id, name, chat_message_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), lifeAreaID, name, chatMessageID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert sub goal: %w", err)
	}
	return nil
}

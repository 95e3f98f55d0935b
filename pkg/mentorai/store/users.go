package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateUser registers a user together with their profile.
func (s *Store) CreateUser(ctx context.Context, email string, profile Profile) (*User, error) {
	u := &User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
			u.ID, u.Email, u.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (user_id, display_name, phone, phone_canonical, timezone)
			 VALUES (?, ?, ?, ?, ?)`,
			u.ID, profile.DisplayName, profile.Phone, profile.PhoneCanonical, orDefault(profile.Timezone, "UTC"),
		); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns every user. Used by the inactivity sweep.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetProfile returns the profile of a user.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, phone, phone_canonical, timezone
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.DisplayName, &p.Phone, &p.PhoneCanonical, &p.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// FindUserByPhone probes the candidate forms of an inbound sender number
// against stored profiles (canonical and raw columns) and returns the first
// match. Returns ErrNotFound when no profile matches.
func (s *Store) FindUserByPhone(ctx context.Context, candidates []string) (*User, error) {
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(candidates)), ",")
	query := fmt.Sprintf(
		`SELECT u.id, u.email, u.created_at
		 FROM users u
		 JOIN profiles p ON p.user_id = u.id
		 WHERE p.phone_canonical IN (%s) OR p.phone IN (%s)
		 LIMIT 1`, placeholders, placeholders)

	args := make([]any, 0, len(candidates)*2)
	for _, c := range candidates {
		args = append(args, c)
	}
	for _, c := range candidates {
		args = append(args, c)
	}

	var u User
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return &u, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

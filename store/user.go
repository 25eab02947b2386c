package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertUser adds a user and returns their generated id.
func (s *Store) InsertUser(ctx context.Context, u *User) (int64, error) {
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (name, role, created_at) VALUES (?, ?, ?)`,
		u.Name, u.Role, u.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

// UserName returns a user's display name, or "" when id is 0 or unknown.
// The report summary prints "Unassigned" for empty names.
func (s *Store) UserName(ctx context.Context, id int64) (string, error) {
	if id == 0 {
		return "", nil
	}
	var name string
	err := s.DB.QueryRowContext(ctx,
		`SELECT name FROM users WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("user %d: %w", id, err)
	}
	return name, nil
}

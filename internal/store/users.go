package store

import (
	"context"
	"fmt"
	"time"

	"github.com/numberdesk/numberdesk/internal/model"
)

const userColumns = "id, name, company, email, phone, created_at"

// CreateUser inserts a user. The ID and CreatedAt fields on u are populated
// after a successful insert. A row with neither email nor phone is rejected
// by the table's CHECK constraint.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO users (name, company, email, phone, created_at)
		VALUES (:name, :company, :email, :phone, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get user id: %w", err)
	}
	u.ID = id
	return nil
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	q := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC, id DESC"
	if err := s.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUsers removes every user and returns how many rows were deleted.
func (s *Store) DeleteUsers(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users")
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete users rows affected: %w", err)
	}
	return n, nil
}

// DeleteUser removes a user by ID. It returns ErrNotFound when no row has
// that ID.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

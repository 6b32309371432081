package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/numberdesk/numberdesk/internal/model"
)

// CreateAdmin inserts an admin credential. The ID and CreatedAt fields are
// populated after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	admin.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO admin_users (username, password_hash, salt, created_at)
		VALUES (:username, :password_hash, :salt, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, admin)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get admin id: %w", err)
	}
	admin.ID = id
	return nil
}

// EnsureDefaultAdmin inserts admin only if the admin_users table is empty.
// The check and the insert are one statement. It reports whether a row was
// written.
func (s *Store) EnsureDefaultAdmin(ctx context.Context, admin *model.Admin) (bool, error) {
	admin.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO admin_users (username, password_hash, salt, created_at)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM admin_users)`

	result, err := s.db.ExecContext(ctx, q, admin.Username, admin.PasswordHash, admin.Salt, admin.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed admin rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("get admin id: %w", err)
	}
	admin.ID = id
	return true, nil
}

// GetAdminByUsername returns an admin by username.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	const q = "SELECT id, username, password_hash, salt, created_at FROM admin_users WHERE username = ?"
	if err := s.db.GetContext(ctx, &admin, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin credentials ordered by username.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	const q = "SELECT id, username, password_hash, salt, created_at FROM admin_users ORDER BY username"
	if err := s.db.SelectContext(ctx, &admins, q); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

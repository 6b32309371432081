package store

import (
	"context"
	"fmt"
	"time"

	"github.com/numberdesk/numberdesk/internal/model"
)

// CreateNumber inserts a phone number record and populates its ID and
// CreatedAt.
func (s *Store) CreateNumber(ctx context.Context, n *model.PhoneNumber) error {
	n.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO users_numbers (details_number, created_at)
		VALUES (:details_number, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, n)
	if err != nil {
		return fmt.Errorf("insert number: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get number id: %w", err)
	}
	n.ID = id
	return nil
}

// ListNumbers returns every phone number record, newest first.
func (s *Store) ListNumbers(ctx context.Context) ([]model.PhoneNumber, error) {
	numbers := []model.PhoneNumber{}
	const q = "SELECT id, details_number, created_at FROM users_numbers ORDER BY created_at DESC, id DESC"
	if err := s.db.SelectContext(ctx, &numbers, q); err != nil {
		return nil, fmt.Errorf("list numbers: %w", err)
	}
	return numbers, nil
}

// DeleteNumbers removes every phone number record and returns the count.
func (s *Store) DeleteNumbers(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users_numbers")
	if err != nil {
		return 0, fmt.Errorf("delete numbers: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete numbers rows affected: %w", err)
	}
	return n, nil
}

// DeleteNumber removes a phone number record by ID, returning ErrNotFound
// when it does not exist.
func (s *Store) DeleteNumber(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users_numbers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete number: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete number rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts returns the row totals of all three tables in one query.
func (s *Store) Counts(ctx context.Context) (model.Counts, error) {
	var c model.Counts
	const q = `SELECT
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM users_numbers) AS numbers,
		(SELECT COUNT(*) FROM admin_users) AS admins`
	if err := s.db.GetContext(ctx, &c, q); err != nil {
		return model.Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

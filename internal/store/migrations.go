package store

import "fmt"

// bootstrap creates the schema. Every statement is idempotent so it runs on
// each open.
func (s *Store) bootstrap() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			company TEXT,
			email TEXT,
			phone TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (email IS NOT NULL OR phone IS NOT NULL)
		)`,

		`CREATE TABLE IF NOT EXISTS users_numbers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			details_number TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		`CREATE TABLE IF NOT EXISTS admin_users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			salt TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

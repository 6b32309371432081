package model

import "time"

// Admin is an operator credential. The password is never stored; only the
// hex SHA-256 of password||salt and the hex salt are kept.
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

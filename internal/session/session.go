// Package session keeps track of the opaque bearer tokens handed out by the
// login endpoint, so protected routes can tell an issued token from a guess.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a token is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the state bound to one issued token.
type Session struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists sessions keyed by token.
type Store interface {
	Save(ctx context.Context, token string, s Session) error
	Lookup(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

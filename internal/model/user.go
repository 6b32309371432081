package model

import "time"

// User is a registered contact. At least one of Email or Phone is non-nil;
// the users table enforces the same rule with a CHECK constraint.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Company   *string   `json:"company" db:"company"`
	Email     *string   `json:"email" db:"email"`
	Phone     *string   `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PhoneNumber is a standalone phone number record. It is not linked to any
// User.
type PhoneNumber struct {
	ID            int64     `json:"id" db:"id"`
	DetailsNumber string    `json:"details_number" db:"details_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Counts holds row totals per table, reported by the health endpoint.
type Counts struct {
	Users   int64 `json:"users" db:"users"`
	Numbers int64 `json:"numbers" db:"numbers"`
	Admins  int64 `json:"admins" db:"admins"`
}

// StringPtr returns nil for an empty string and &s otherwise, so optional
// fields are persisted as NULL rather than "".
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

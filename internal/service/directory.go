package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/numberdesk/numberdesk/internal/events"
	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/validate"
)

// Validation messages returned to clients.
const (
	MsgNameRequired    = "Name is required"
	MsgContactRequired = "Either email or phone is required"
	MsgInvalidEmail    = "Invalid email format"
	MsgInvalidPhone    = "Invalid phone number format"
	MsgDetailsRequired = "Details number is required"
)

// ValidationError reports a rejected input field. Nothing is written to the
// store when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DirectoryStore is the part of the store the directory works against.
type DirectoryStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUsers(ctx context.Context) (int64, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateNumber(ctx context.Context, n *model.PhoneNumber) error
	ListNumbers(ctx context.Context) ([]model.PhoneNumber, error)
	DeleteNumbers(ctx context.Context) (int64, error)
	DeleteNumber(ctx context.Context, id int64) error

	Counts(ctx context.Context) (model.Counts, error)
}

// RegisterUserInput is the raw, untrimmed registration payload.
type RegisterUserInput struct {
	Name    string
	Company string
	Email   string
	Phone   string
}

// Directory validates and records users and phone numbers and announces
// every completed write on the event publisher.
type Directory struct {
	store     DirectoryStore
	publisher events.Publisher
	logger    *slog.Logger
}

// NewDirectory creates a Directory. A nil publisher discards events and a
// nil logger uses slog.Default.
func NewDirectory(store DirectoryStore, publisher events.Publisher, logger *slog.Logger) *Directory {
	if publisher == nil {
		publisher = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{store: store, publisher: publisher, logger: logger}
}

// RegisterUser trims the input and checks, in order: name present, email or
// phone present, email format, phone format. The first failure is returned
// as a *ValidationError. On success the new user's id is returned.
func (d *Directory) RegisterUser(ctx context.Context, in RegisterUserInput) (int64, error) {
	name := strings.TrimSpace(in.Name)
	company := strings.TrimSpace(in.Company)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	switch {
	case name == "":
		return 0, &ValidationError{Field: "name", Message: MsgNameRequired}
	case email == "" && phone == "":
		return 0, &ValidationError{Field: "email", Message: MsgContactRequired}
	case email != "" && !validate.Email(email):
		return 0, &ValidationError{Field: "email", Message: MsgInvalidEmail}
	case phone != "" && !validate.Phone(phone):
		return 0, &ValidationError{Field: "phone", Message: MsgInvalidPhone}
	}

	u := &model.User{
		Name:    name,
		Company: model.StringPtr(company),
		Email:   model.StringPtr(email),
		Phone:   model.StringPtr(phone),
	}
	if err := d.store.CreateUser(ctx, u); err != nil {
		return 0, err
	}

	e := events.New(events.UserRegistered, "user")
	e.ID = u.ID
	d.publish(ctx, e)
	return u.ID, nil
}

// SaveNumber trims details and requires it to be a valid phone number.
func (d *Directory) SaveNumber(ctx context.Context, details string) (int64, error) {
	details = strings.TrimSpace(details)
	if details == "" {
		return 0, &ValidationError{Field: "details_number", Message: MsgDetailsRequired}
	}
	if !validate.Phone(details) {
		return 0, &ValidationError{Field: "details_number", Message: MsgInvalidPhone}
	}

	n := &model.PhoneNumber{DetailsNumber: details}
	if err := d.store.CreateNumber(ctx, n); err != nil {
		return 0, err
	}

	e := events.New(events.NumberSaved, "number")
	e.ID = n.ID
	d.publish(ctx, e)
	return n.ID, nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]model.User, error) {
	return d.store.ListUsers(ctx)
}

func (d *Directory) ListNumbers(ctx context.Context) ([]model.PhoneNumber, error) {
	return d.store.ListNumbers(ctx)
}

// DeleteAllUsers removes every user and returns how many were removed.
func (d *Directory) DeleteAllUsers(ctx context.Context) (int64, error) {
	n, err := d.store.DeleteUsers(ctx)
	if err != nil {
		return 0, err
	}
	e := events.New(events.UsersCleared, "user")
	e.Count = n
	d.publish(ctx, e)
	return n, nil
}

// DeleteUser removes one user. It returns store.ErrNotFound when no row
// matched.
func (d *Directory) DeleteUser(ctx context.Context, id int64) error {
	if err := d.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	e := events.New(events.UserDeleted, "user")
	e.ID = id
	d.publish(ctx, e)
	return nil
}

// DeleteAllNumbers removes every phone number record.
func (d *Directory) DeleteAllNumbers(ctx context.Context) (int64, error) {
	n, err := d.store.DeleteNumbers(ctx)
	if err != nil {
		return 0, err
	}
	e := events.New(events.NumbersCleared, "number")
	e.Count = n
	d.publish(ctx, e)
	return n, nil
}

// DeleteNumber removes one phone number record.
func (d *Directory) DeleteNumber(ctx context.Context, id int64) error {
	if err := d.store.DeleteNumber(ctx, id); err != nil {
		return err
	}
	e := events.New(events.NumberDeleted, "number")
	e.ID = id
	d.publish(ctx, e)
	return nil
}

// Stats returns row totals.
func (d *Directory) Stats(ctx context.Context) (model.Counts, error) {
	c, err := d.store.Counts(ctx)
	if err != nil {
		return model.Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// publish sends e and logs a failure. A failed publish never fails the write
// that produced it.
func (d *Directory) publish(ctx context.Context, e events.Event) {
	if err := d.publisher.Publish(ctx, e); err != nil {
		d.logger.Warn("event publish failed", "type", e.Type, "id", e.ID, "error", err)
	}
}

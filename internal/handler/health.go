package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/numberdesk/numberdesk/internal/model"
)

// HealthSource reports on the backing database.
type HealthSource interface {
	Path() string
	FileInfo() (exists bool, size int64, err error)
	Counts(ctx context.Context) (model.Counts, error)
}

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	src       HealthSource
	endpoints []model.Endpoint
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler that lists endpoints in its
// response.
func NewHealthHandler(src HealthSource, endpoints []model.Endpoint, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{src: src, endpoints: endpoints, logger: logger}
}

// Health reports the database file, row counts and the route directory.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	counts, err := h.src.Counts(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "health counts", err)
		return
	}
	exists, size, err := h.src.FileInfo()
	if err != nil {
		writeInternal(w, r, h.logger, "health stat", err)
		return
	}

	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status: "OK",
		Database: model.DatabaseHealth{
			Path:   h.src.Path(),
			Exists: exists,
			Size:   size,
		},
		Counts:    counts,
		Endpoints: h.endpoints,
	})
}

// Endpoints is the route directory reported by the health endpoint.
// protectNumbers marks POST /numbers/detail_number as requiring a bearer
// credential.
func Endpoints(protectNumbers bool) []model.Endpoint {
	return []model.Endpoint{
		{Method: http.MethodPost, Path: "/users/register", Description: "Register a user"},
		{Method: http.MethodGet, Path: "/users/all", Description: "List all users"},
		{Method: http.MethodDelete, Path: "/users/delete_all", Description: "Delete all users"},
		{Method: http.MethodDelete, Path: "/users/delete/{id}", Description: "Delete a user by id"},
		{Method: http.MethodPost, Path: "/numbers/detail_number", Description: "Save a phone number", Protected: protectNumbers},
		{Method: http.MethodGet, Path: "/numbers/all", Description: "List all phone numbers"},
		{Method: http.MethodDelete, Path: "/numbers/delete_all", Description: "Delete all phone numbers"},
		{Method: http.MethodDelete, Path: "/numbers/delete/{id}", Description: "Delete a phone number by id"},
		{Method: http.MethodPost, Path: "/auth/login", Description: "Log in"},
		{Method: http.MethodPost, Path: "/auth/logout", Description: "Log out"},
		{Method: http.MethodGet, Path: "/health", Description: "Service health"},
		{Method: http.MethodGet, Path: "/openapi.json", Description: "OpenAPI document"},
		{Method: http.MethodGet, Path: "/swagger/", Description: "Interactive API documentation"},
	}
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/service"
	"github.com/numberdesk/numberdesk/internal/store"
)

// DirectoryHandler serves the user and phone number resources.
type DirectoryHandler struct {
	dir    *service.Directory
	logger *slog.Logger
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(dir *service.Directory, logger *slog.Logger) *DirectoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryHandler{dir: dir, logger: logger}
}

// registerUserRequest is the payload for RegisterUser. Absent fields decode
// as empty strings and are treated like blank ones.
type registerUserRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// RegisterUser validates and stores a new user.
// POST /users/register
func (h *DirectoryHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgNoData)
		return
	}

	id, err := h.dir.RegisterUser(r.Context(), service.RegisterUserInput{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, model.RegisterResponse{
		Message: "Registration successful!",
		UserID:  id,
	})
}

// ListUsers returns every user, newest first.
// GET /users/all
func (h *DirectoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.dir.ListUsers(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteAllUsers removes every user.
// DELETE /users/delete_all
func (h *DirectoryHandler) DeleteAllUsers(w http.ResponseWriter, r *http.Request) {
	n, err := h.dir.DeleteAllUsers(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "delete all users", err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteAllResponse{
		Message:      "All users deleted successfully!",
		DeletedCount: n,
	})
}

// DeleteUser removes one user by id.
// DELETE /users/delete/{id}
func (h *DirectoryHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.dir.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeInternal(w, r, h.logger, "delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "User deleted successfully!"})
}

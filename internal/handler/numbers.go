package handler

import (
	"errors"
	"net/http"

	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/server/middleware"
	"github.com/numberdesk/numberdesk/internal/store"
)

type saveNumberRequest struct {
	DetailsNumber string `json:"details_number"`
}

// SaveNumber validates and stores a phone number record.
// POST /numbers/detail_number
func (h *DirectoryHandler) SaveNumber(w http.ResponseWriter, r *http.Request) {
	var req saveNumberRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgNoData)
		return
	}

	id, err := h.dir.SaveNumber(r.Context(), req.DetailsNumber)
	if err != nil {
		writeServiceError(w, r, h.logger, "save number", err)
		return
	}
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		h.logger.Info("number saved",
			"number_id", id,
			"by", p.Username,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}

	writeJSON(w, http.StatusCreated, model.NumberResponse{
		Message:  "Phone number saved successfully!",
		NumberID: id,
	})
}

// ListNumbers returns every phone number record, newest first.
// GET /numbers/all
func (h *DirectoryHandler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	numbers, err := h.dir.ListNumbers(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "list numbers", err)
		return
	}
	writeJSON(w, http.StatusOK, numbers)
}

// DeleteAllNumbers removes every phone number record.
// DELETE /numbers/delete_all
func (h *DirectoryHandler) DeleteAllNumbers(w http.ResponseWriter, r *http.Request) {
	n, err := h.dir.DeleteAllNumbers(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "delete all numbers", err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteAllResponse{
		Message:      "All phone numbers deleted successfully!",
		DeletedCount: n,
	})
}

// DeleteNumber removes one phone number record by id.
// DELETE /numbers/delete/{id}
func (h *DirectoryHandler) DeleteNumber(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Phone number not found")
		return
	}

	if err := h.dir.DeleteNumber(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Phone number not found")
			return
		}
		writeInternal(w, r, h.logger, "delete number", err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Phone number deleted successfully!"})
}

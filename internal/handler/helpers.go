package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/server/middleware"
	"github.com/numberdesk/numberdesk/internal/service"
)

// Messages shared by several handlers.
const (
	msgNoData     = "No data provided"
	msgUnexpected = "An unexpected error occurred"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure. An empty body is an error.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("empty request body")
	}
	return err
}

// pathID parses the {id} URL parameter. Anything that is not an integer is
// reported as absent, since no row can have such an id.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// writeInternal logs err with the request id and answers with a generic 500.
// The error text never reaches the client.
func writeInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	logger.Error(op+" failed",
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, msgUnexpected)
}

// writeServiceError maps directory errors to responses: validation failures
// become 400 and everything else is an internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	writeInternal(w, r, logger, op, err)
}

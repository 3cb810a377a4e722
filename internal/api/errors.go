package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nboulfrad/taskforge/internal/auth"
	"github.com/nboulfrad/taskforge/internal/calendar"
	"github.com/nboulfrad/taskforge/internal/task"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps service errors to transport status codes. Raw
// persistence errors never reach the client: anything unmapped becomes
// a generic 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var weak *auth.WeakPasswordError
	switch {
	case errors.As(err, &weak):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, weak.Error())
	case errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingName),
		errors.Is(err, task.ErrMissingName),
		errors.Is(err, task.ErrEmptyUpdate),
		errors.Is(err, calendar.ErrMissingFields):
		writeBadRequest(w, err.Error())
	case errors.Is(err, auth.ErrUserExists),
		errors.Is(err, task.ErrAlreadyCollaborator),
		errors.Is(err, task.ErrOwnCollaborator):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenUnknown),
		errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, err.Error())
	case errors.Is(err, task.ErrAccessDenied),
		errors.Is(err, auth.ErrNotSelf):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, task.ErrCollaboratorNotFound),
		errors.Is(err, calendar.ErrEventNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		s.logger.Error("unhandled error in HTTP handler",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}

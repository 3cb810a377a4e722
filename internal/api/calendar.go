package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nboulfrad/taskforge/internal/calendar"
)

// handleCreateEvent inserts an event into the configured calendar.
//
// POST /api/v1/calendar/events
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if s.calendarSvc == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "calendar integration is disabled")
		return
	}

	var input calendar.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	event, err := s.calendarSvc.CreateEvent(r.Context(), input)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// handleGetEvent fetches a calendar event by ID.
//
// GET /api/v1/calendar/events/{id}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	if s.calendarSvc == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "calendar integration is disabled")
		return
	}

	event, err := s.calendarSvc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// handleDeleteEvent removes a calendar event by ID.
//
// DELETE /api/v1/calendar/events/{id}
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if s.calendarSvc == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "calendar integration is disabled")
		return
	}

	if err := s.calendarSvc.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

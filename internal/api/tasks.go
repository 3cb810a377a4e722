package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nboulfrad/taskforge/internal/task"
)

// handleListTasks returns one page of the caller's tasks, owned or
// shared, newest first. Query parameters: page (default 1), per_page
// (default 3).
//
// GET /api/v1/tasks?page=1&per_page=3
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", task.DefaultPage)
	perPage := queryInt(r, "per_page", task.DefaultPerPage)

	result, err := s.taskSvc.List(r.Context(), caller.ID, page, perPage)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCreateTask makes a new task owned by the caller.
//
// POST /api/v1/tasks
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := s.taskSvc.Create(r.Context(), caller.ID, req.Name, req.Description)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetTask returns a task the caller owns or collaborates on.
//
// GET /api/v1/tasks/{id}
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := s.taskSvc.Get(r.Context(), caller.ID, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUpdateTask applies a partial update. Only fields present in the
// body change.
//
// PATCH /api/v1/tasks/{id}
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var update task.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	updated, err := s.taskSvc.Update(r.Context(), caller.ID, id, update)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteTask removes a task. Owner only.
//
// DELETE /api/v1/tasks/{id}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.taskSvc.Delete(r.Context(), caller.ID, id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListCollaborators returns the collaborator IDs of a task.
//
// GET /api/v1/tasks/{id}/collaborators
func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ids, err := s.taskSvc.ListCollaborators(r.Context(), caller.ID, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collaborator_ids": ids})
}

// handleAddCollaborator grants another user access to a task. Owner only.
//
// POST /api/v1/tasks/{id}/collaborators
func (s *Server) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID < 1 {
		writeBadRequest(w, "user_id is required")
		return
	}

	updated, err := s.taskSvc.AddCollaborator(r.Context(), caller.ID, id, req.UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleRemoveCollaborator revokes a user's access to a task. Owner only.
//
// DELETE /api/v1/tasks/{id}/collaborators/{userId}
func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	updated, err := s.taskSvc.RemoveCollaborator(r.Context(), caller.ID, id, userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// queryInt parses an integer query parameter, falling back to a default.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

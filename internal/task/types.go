package task

import "errors"

// Task represents a tracked task. OwnerID is set at creation and never
// changes; CollaboratorIDs holds the users granted shared access.
type Task struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	IsDone          bool    `json:"is_done"`
	OwnerID         int64   `json:"owner_id"`
	CollaboratorIDs []int64 `json:"collaborator_ids"`
}

// Update describes a partial task update. Nil fields are left untouched.
type Update struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsDone      *bool   `json:"is_done,omitempty"`
}

// Page is one page of a user's task listing. Total counts every task
// the user can see, not just this page, so clients can render paging.
type Page struct {
	Tasks   []Task `json:"tasks"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total"`
}

// Default listing page size.
const (
	DefaultPage    = 1
	DefaultPerPage = 3
)

// Sentinel errors for task operations.
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrAccessDenied         = errors.New("access denied")
	ErrMissingName          = errors.New("task name is required")
	ErrOwnCollaborator      = errors.New("owner cannot be a collaborator on their own task")
	ErrAlreadyCollaborator  = errors.New("user is already a collaborator")
	ErrCollaboratorNotFound = errors.New("user is not a collaborator on this task")
	ErrEmptyUpdate          = errors.New("update contains no fields")
)

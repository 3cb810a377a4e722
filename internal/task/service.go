package task

import (
	"context"
	"fmt"

	"github.com/nboulfrad/taskforge/internal/auth"
	"github.com/nboulfrad/taskforge/internal/infrastructure/logging"
)

// Notifier receives task change events. The websocket feed implements
// it; a nil notifier disables events.
type Notifier interface {
	NotifyTaskEvent(event string, t *Task)
}

// Event names passed to the Notifier.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// Service applies access control on top of the task repository. Every
// operation takes the authenticated caller's user ID and decides
// owner/collaborator rights before touching storage.
type Service struct {
	tasks    Repository
	users    auth.UserRepository
	notifier Notifier
	logger   *logging.Logger
}

// NewService creates the task service. notifier may be nil.
func NewService(tasks Repository, users auth.UserRepository, notifier Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		logger:   logger.With("component", "task"),
	}
}

// Create makes a new task owned by the caller.
func (s *Service) Create(ctx context.Context, callerID int64, name, description string) (*Task, error) {
	if name == "" {
		return nil, ErrMissingName
	}

	t, err := s.tasks.Create(ctx, callerID, name, description)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created", "task_id", t.ID, "owner_id", callerID)
	s.notify(EventTaskCreated, t)
	return t, nil
}

// Get returns a task the caller owns or collaborates on.
func (s *Service) Get(ctx context.Context, callerID, taskID int64) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !HasAccess(t, callerID) {
		return nil, ErrAccessDenied
	}
	return t, nil
}

// Update applies a partial update to a task the caller owns or
// collaborates on. Collaborators may change content fields just like
// the owner.
func (s *Service) Update(ctx context.Context, callerID, taskID int64, update Update) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !HasAccess(t, callerID) {
		return nil, ErrAccessDenied
	}

	if err := s.tasks.Update(ctx, taskID, update); err != nil {
		return nil, err
	}

	updated, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", taskID, "user_id", callerID)
	s.notify(EventTaskUpdated, updated)
	return updated, nil
}

// Delete removes a task. Only the owner may delete; a collaborator gets
// ErrAccessDenied.
func (s *Service) Delete(ctx context.Context, callerID, taskID int64) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if !IsOwner(t, callerID) {
		return ErrAccessDenied
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", taskID, "owner_id", callerID)
	s.notify(EventTaskDeleted, t)
	return nil
}

// List returns one page of the caller's tasks, owned or shared, newest
// first.
func (s *Service) List(ctx context.Context, callerID int64, page, perPage int) (*Page, error) {
	return s.tasks.ListForUser(ctx, callerID, page, perPage)
}

// AddCollaborator grants another user access to a task. Only the owner
// may grant; the owner cannot be a collaborator on their own task, and
// the grantee must be an existing account.
func (s *Service) AddCollaborator(ctx context.Context, callerID, taskID, userID int64) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !IsOwner(t, callerID) {
		return nil, ErrAccessDenied
	}
	if userID == t.OwnerID {
		return nil, ErrOwnCollaborator
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("resolving collaborator: %w", err)
	}

	if err := s.tasks.AddCollaborator(ctx, taskID, userID); err != nil {
		return nil, err
	}

	updated, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collaborator added", "task_id", taskID, "user_id", userID)
	s.notify(EventTaskUpdated, updated)
	return updated, nil
}

// RemoveCollaborator revokes a user's access to a task. Only the owner
// may revoke.
func (s *Service) RemoveCollaborator(ctx context.Context, callerID, taskID, userID int64) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !IsOwner(t, callerID) {
		return nil, ErrAccessDenied
	}

	if err := s.tasks.RemoveCollaborator(ctx, taskID, userID); err != nil {
		return nil, err
	}

	updated, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collaborator removed", "task_id", taskID, "user_id", userID)
	s.notify(EventTaskUpdated, updated)
	return updated, nil
}

// ListCollaborators returns the collaborator IDs of a task the caller
// can see.
func (s *Service) ListCollaborators(ctx context.Context, callerID, taskID int64) ([]int64, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !HasAccess(t, callerID) {
		return nil, ErrAccessDenied
	}
	return t.CollaboratorIDs, nil
}

func (s *Service) notify(event string, t *Task) {
	if s.notifier != nil {
		s.notifier.NotifyTaskEvent(event, t)
	}
}

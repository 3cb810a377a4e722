package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository defines the interface for task persistence, including the
// collaborator relation.
type Repository interface {
	Create(ctx context.Context, ownerID int64, name, description string) (*Task, error)
	GetByID(ctx context.Context, id int64) (*Task, error)
	Update(ctx context.Context, id int64, update Update) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64, page, perPage int) (*Page, error)

	AddCollaborator(ctx context.Context, taskID, userID int64) error
	RemoveCollaborator(ctx context.Context, taskID, userID int64) error
	ListCollaborators(ctx context.Context, taskID int64) ([]int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed task repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new task owned by ownerID, not done, with no
// collaborators.
func (r *SQLiteRepository) Create(ctx context.Context, ownerID int64, name, description string) (*Task, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (name, description, is_done, owner_id) VALUES (?, ?, 0, ?)",
		name, description, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new task ID: %w", err)
	}

	return &Task{
		ID:              id,
		Name:            name,
		Description:     description,
		OwnerID:         ownerID,
		CollaboratorIDs: []int64{},
	}, nil
}

// GetByID retrieves a task with its collaborator IDs populated.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Task, error) {
	var t Task
	var isDone int

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, is_done, owner_id FROM tasks WHERE id = ?",
		id,
	).Scan(&t.ID, &t.Name, &t.Description, &isDone, &t.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("querying task: %w", err)
	}
	t.IsDone = isDone != 0

	t.CollaboratorIDs, err = r.ListCollaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update applies a partial update. Only the fields set in the update are
// written; everything else keeps its stored value.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, update Update) error {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.IsDone != nil {
		sets = append(sets, "is_done = ?")
		done := 0
		if *update.IsDone {
			done = 1
		}
		args = append(args, done)
	}
	if len(sets) == 0 {
		return ErrEmptyUpdate
	}

	args = append(args, id)
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task. The collaborator grants go with it via
// ON DELETE CASCADE.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// visibleTasksWhere selects tasks the user owns or collaborates on.
const visibleTasksWhere = `
	owner_id = ?1 OR id IN (
		SELECT task_id FROM task_collaborators WHERE user_id = ?1
	)`

// ListForUser returns one page of the tasks the user owns or
// collaborates on, newest first. Page numbers start at 1; out-of-range
// values fall back to the defaults.
func (r *SQLiteRepository) ListForUser(ctx context.Context, userID int64, page, perPage int) (*Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM tasks WHERE" + visibleTasksWhere
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	listQuery := `SELECT id, name, description, is_done, owner_id FROM tasks WHERE` +
		visibleTasksWhere + ` ORDER BY id DESC LIMIT ?2 OFFSET ?3`

	rows, err := r.db.QueryContext(ctx, listQuery, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		var isDone int
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &isDone, &t.OwnerID); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.IsDone = isDone != 0
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	for i := range tasks {
		tasks[i].CollaboratorIDs, err = r.ListCollaborators(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return &Page{Tasks: tasks, Page: page, PerPage: perPage, Total: total}, nil
}

// AddCollaborator grants a user shared access to a task. Re-granting an
// existing collaborator returns ErrAlreadyCollaborator via the primary
// key on the pair.
func (r *SQLiteRepository) AddCollaborator(ctx context.Context, taskID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO task_collaborators (task_id, user_id) VALUES (?, ?)",
		taskID, userID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyCollaborator
		}
		return fmt.Errorf("adding collaborator: %w", err)
	}
	return nil
}

// RemoveCollaborator revokes a user's shared access to a task.
func (r *SQLiteRepository) RemoveCollaborator(ctx context.Context, taskID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM task_collaborators WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing collaborator: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrCollaboratorNotFound
	}
	return nil
}

// ListCollaborators returns the user IDs collaborating on a task, in
// grant order.
func (r *SQLiteRepository) ListCollaborators(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM task_collaborators WHERE task_id = ? ORDER BY user_id ASC",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing collaborators: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning collaborator: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collaborators: %w", err)
	}
	return ids, nil
}

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, name, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Rename(ctx context.Context, id int64, name string) error
	SetLoginState(ctx context.Context, id int64, loggedIn bool) error
	SetLoggedOutExcept(ctx context.Context, activeIDs []int64) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create inserts a new user account with the login flag cleared.
// A name collision surfaces as ErrUserExists via the UNIQUE constraint,
// closing the race between two concurrent signups with the same name.
func (r *SQLiteUserRepository) Create(ctx context.Context, name, passwordHash string) (*User, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, password_hash, is_login) VALUES (?, ?, 0)",
		name, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new user ID: %w", err)
	}

	return &User{ID: id, Name: name, PasswordHash: passwordHash}, nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "SELECT id, name, password_hash, is_login FROM users WHERE id = ?", id)
}

// GetByName retrieves a user by their unique name.
func (r *SQLiteUserRepository) GetByName(ctx context.Context, name string) (*User, error) {
	return r.getUser(ctx, "SELECT id, name, password_hash, is_login FROM users WHERE name = ?", name)
}

// List returns all users ordered by ID. The password hash column is not
// selected: listings are always redacted.
func (r *SQLiteUserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, is_login FROM users ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var isLogin int
		if err := rows.Scan(&u.ID, &u.Name, &isLogin); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.IsLoggedIn = isLogin != 0
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Rename changes a user's name. The new name is subject to the same
// uniqueness constraint as signup.
func (r *SQLiteUserRepository) Rename(ctx context.Context, id int64, name string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("renaming user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLoginState sets the advisory is_login flag for a user.
func (r *SQLiteUserRepository) SetLoginState(ctx context.Context, id int64, loggedIn bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_login = ? WHERE id = ?", boolToInt(loggedIn), id)
	if err != nil {
		return fmt.Errorf("setting login state: %w", err)
	}
	return nil
}

// SetLoggedOutExcept clears the is_login flag for every user NOT in
// activeIDs. The sweep uses it to recompute the flag as a projection of
// "has at least one stored refresh token" rather than tracking it
// incrementally.
func (r *SQLiteUserRepository) SetLoggedOutExcept(ctx context.Context, activeIDs []int64) error {
	if len(activeIDs) == 0 {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET is_login = 0 WHERE is_login = 1"); err != nil {
			return fmt.Errorf("clearing login states: %w", err)
		}
		return nil
	}

	placeholders := strings.Repeat("?,", len(activeIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(activeIDs))
	for i, id := range activeIDs {
		args[i] = id
	}

	query := fmt.Sprintf(
		"UPDATE users SET is_login = 0 WHERE is_login = 1 AND id NOT IN (%s)", placeholders)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing stale login states: %w", err)
	}
	return nil
}

// Delete removes a user account by ID. Tasks they own, their collaborator
// grants, and their refresh tokens go with them via ON DELETE CASCADE.
// This is an administrative operation, not exposed through signup/login.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the total number of user accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// getUser executes a query and scans a single user result.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	var isLogin int

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Name, &u.PasswordHash, &isLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u.IsLoggedIn = isLogin != 0
	return &u, nil
}

// Helper functions.

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}

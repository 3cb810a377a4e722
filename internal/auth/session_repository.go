package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionRepository defines the interface for refresh token persistence.
// Each row is one live session: the token the client holds must match a
// stored row verbatim or the session is gone.
type SessionRepository interface {
	Insert(ctx context.Context, userID int64, token string, createdAt time.Time) (*RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID int64) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteSessionRepository implements SessionRepository using SQLite.
type SQLiteSessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed session repository.
func NewSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// Insert stores a refresh token for a user. Timestamps are stored in
// RFC 3339 UTC so the age cutoff comparison in DeleteOlderThan works as
// plain string comparison.
func (r *SQLiteSessionRepository) Insert(ctx context.Context, userID int64, token string, createdAt time.Time) (*RefreshToken, error) {
	created := createdAt.UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, created_at) VALUES (?, ?, ?)",
		userID, token, created,
	)
	if err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new token ID: %w", err)
	}

	return &RefreshToken{ID: id, UserID: userID, Token: token, CreatedAt: createdAt.UTC()}, nil
}

// GetByToken looks up a session by its exact token string. A token that
// was never stored, or was already deleted, returns ErrTokenUnknown.
func (r *SQLiteSessionRepository) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	var rt RefreshToken
	var created string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, created_at FROM refresh_tokens WHERE token = ?",
		token,
	).Scan(&rt.ID, &rt.UserID, &rt.Token, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenUnknown
		}
		return nil, fmt.Errorf("looking up refresh token: %w", err)
	}

	rt.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("parsing token timestamp: %w", err)
	}
	return &rt, nil
}

// DeleteByToken removes a session by its token string. Deleting a token
// that does not exist is not an error: logout is idempotent.
func (r *SQLiteSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token = ?", token); err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	return nil
}

// DeleteForUser removes every session belonging to a user and returns
// how many were removed.
func (r *SQLiteSessionRepository) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("deleting user sessions: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows, nil
}

// DeleteOlderThan removes every session created before the cutoff and
// returns how many were removed.
func (r *SQLiteSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows, nil
}

// ListUserIDs returns the distinct user IDs that still hold at least one
// stored refresh token.
func (r *SQLiteSessionRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM refresh_tokens")
	if err != nil {
		return nil, fmt.Errorf("listing session user IDs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user IDs: %w", err)
	}
	return ids, nil
}

// Count returns the total number of stored sessions.
func (r *SQLiteSessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM refresh_tokens").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

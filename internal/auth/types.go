package auth

import (
	"errors"
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // never serialised
	IsLoggedIn   bool   `json:"is_login"`
}

// Redacted returns a copy of the user safe to hand to callers: same
// fields, password hash cleared.
func (u *User) Redacted() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// RefreshToken represents a stored refresh token. A user may hold several
// concurrent tokens (one per device/session).
type RefreshToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"` // never serialised
	CreatedAt time.Time `json:"created_at"`
}

// Sentinel errors for auth operations.
var (
	ErrMissingCredentials = errors.New("name and password are required")
	ErrMissingToken       = errors.New("refresh token is required")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenUnknown       = errors.New("refresh token not recognised")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrNotSelf            = errors.New("users can only modify their own profile")
	ErrMissingName        = errors.New("name is required")
)

// WeakPasswordError reports every password policy rule the candidate
// violated, in policy order.
type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return strings.Join(e.Violations, ". ")
}

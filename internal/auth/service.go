package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nboulfrad/taskforge/internal/infrastructure/logging"
)

// RefreshTokenMaxAge is how long a stored refresh token stays valid
// before the cleanup sweep deletes it. It matches the refresh JWT
// lifetime so the database row and the signature expire together.
const RefreshTokenMaxAge = 7 * 24 * time.Hour

// Service orchestrates the account lifecycle: signup, login, access
// token refresh, logout, and the periodic session sweep.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	issuer   *TokenIssuer

	bcryptCost  int
	tokenMaxAge time.Duration

	logger *logging.Logger
}

// LoginResult carries the outcome of a successful login: the token pair
// and the redacted user record.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
	User         *User  `json:"user"`
}

// SweepResult reports what a cleanup pass did.
type SweepResult struct {
	TokensDeleted int64 `json:"tokens_deleted"`
	ActiveUsers   int   `json:"active_users"`
}

// NewService creates the auth service. A zero bcryptCost selects the
// default cost and a zero tokenMaxAge selects RefreshTokenMaxAge.
func NewService(users UserRepository, sessions SessionRepository, issuer *TokenIssuer, bcryptCost int, logger *logging.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = DefaultBcryptCost
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		users:       users,
		sessions:    sessions,
		issuer:      issuer,
		bcryptCost:  bcryptCost,
		tokenMaxAge: RefreshTokenMaxAge,
		logger:      logger.With("component", "auth"),
	}
}

// RefreshTTL reports the refresh token lifetime, for cookie expiry.
func (s *Service) RefreshTTL() time.Duration {
	return s.issuer.RefreshTTL()
}

// Signup registers a new account. The password must satisfy the
// complexity policy; violations come back as a WeakPasswordError listing
// every failed rule. The stored record holds only the bcrypt hash.
func (s *Service) Signup(ctx context.Context, name, password string) (*User, error) {
	if name == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if violations := ValidatePassword(password); len(violations) > 0 {
		return nil, &WeakPasswordError{Violations: violations}
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, name, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "name", user.Name)
	return user.Redacted(), nil
}

// Login verifies credentials and opens a session. An unknown name and a
// wrong password both return ErrInvalidCredentials so a caller cannot
// probe which names exist. On success the refresh token is stored
// verbatim and the user's login flag is set.
func (s *Service) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	if name == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.issuer.Generate(user.ID, user.Name, TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	refreshToken, err := s.issuer.Generate(user.ID, user.Name, TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}

	if _, err := s.sessions.Insert(ctx, user.ID, refreshToken, time.Now()); err != nil {
		return nil, err
	}
	if err := s.users.SetLoginState(ctx, user.ID, true); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "name", user.Name)

	user.IsLoggedIn = true
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Redacted(),
	}, nil
}

// Refresh exchanges a refresh token for a fresh access token. The token
// must pass signature and expiry validation AND still exist in the
// session store: a logged-out session fails here even if the JWT itself
// has time left. The refresh token is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingToken
	}

	if _, err := s.sessions.GetByToken(ctx, refreshToken); err != nil {
		return "", err
	}

	claims, err := s.issuer.Parse(refreshToken, TokenKindRefresh)
	if err != nil {
		// Signature or expiry failure on a stored token: the row is
		// dead weight, drop it rather than wait for the sweep.
		if delErr := s.sessions.DeleteByToken(ctx, refreshToken); delErr != nil {
			s.logger.Warn("failed to drop invalid session", "error", delErr)
		}
		return "", err
	}

	accessToken, err := s.issuer.Generate(claims.UserID, claims.Name, TokenKindAccess)
	if err != nil {
		return "", fmt.Errorf("issuing access token: %w", err)
	}

	s.logger.Debug("access token refreshed", "user_id", claims.UserID)
	return accessToken, nil
}

// Logout closes the session holding the given refresh token. It is
// idempotent: an unknown or already-deleted token still succeeds. When
// the token decodes to a known user and that user has no sessions left,
// their login flag is cleared.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingToken
	}

	session, err := s.sessions.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenUnknown) {
			return nil
		}
		return err
	}

	if err := s.sessions.DeleteByToken(ctx, refreshToken); err != nil {
		return err
	}

	remaining, err := s.sessions.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range remaining {
		if id == session.UserID {
			s.logger.Debug("user logged out, other sessions remain", "user_id", session.UserID)
			return nil
		}
	}

	if err := s.users.SetLoginState(ctx, session.UserID, false); err != nil {
		return err
	}

	s.logger.Info("user logged out", "user_id", session.UserID)
	return nil
}

// Authenticate validates an access token and returns the user it names.
// The user must still exist: a token for a deleted account is rejected.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.issuer.Parse(accessToken, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

// GetUser returns a single user with the password hash redacted.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Redacted(), nil
}

// ListUsers returns all accounts, redacted.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// Rename changes a user's display name. Callers may only rename
// themselves; the API layer passes the authenticated principal's ID as
// callerID.
func (s *Service) Rename(ctx context.Context, callerID, targetID int64, name string) (*User, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	if callerID != targetID {
		return nil, ErrNotSelf
	}

	if err := s.users.Rename(ctx, targetID, name); err != nil {
		return nil, err
	}

	s.logger.Info("user renamed", "user_id", targetID, "name", name)
	return s.GetUser(ctx, targetID)
}

// CleanExpiredTokens runs one cleanup pass: it deletes refresh tokens
// older than the age limit, then recomputes the advisory login flags so
// only users who still hold a session stay marked logged in. Running it
// twice in a row is safe; the second pass is a no-op.
func (s *Service) CleanExpiredTokens(ctx context.Context) (*SweepResult, error) {
	cutoff := time.Now().Add(-s.tokenMaxAge)

	deleted, err := s.sessions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	activeIDs, err := s.sessions.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetLoggedOutExcept(ctx, activeIDs); err != nil {
		return nil, err
	}

	result := &SweepResult{TokensDeleted: deleted, ActiveUsers: len(activeIDs)}
	if deleted > 0 {
		s.logger.Info("session sweep complete",
			"tokens_deleted", deleted, "active_users", len(activeIDs))
	}
	return result, nil
}

// RunCleanup runs the sweep on a fixed interval until ctx is cancelled.
// One pass runs immediately at startup so a long-stopped server catches
// up without waiting a full interval.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	s.logger.Info("session sweeper started", "interval", interval.String())

	if _, err := s.CleanExpiredTokens(ctx); err != nil {
		s.logger.Error("session sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.CleanExpiredTokens(ctx); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

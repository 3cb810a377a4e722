package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nboulfrad/taskforge/internal/auth"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleSignup registers a new account.
//
// POST /api/v1/auth/signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.authSvc.Signup(r.Context(), req.Name, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   user.ID,
		"name": user.Name,
	})
}

// handleLogin verifies credentials and opens a session. The refresh
// token rides in an HTTP-only cookie so browser scripts never see it;
// it is also echoed in the body for non-browser clients.
//
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.authSvc.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.setRefreshCookie(w, result.RefreshToken, s.authSvc.RefreshTTL())

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// handleRefresh exchanges a refresh token for a new access token. The
// token comes from the cookie when present, else from the body.
//
// POST /api/v1/auth/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := s.refreshTokenFrom(r)

	accessToken, err := s.authSvc.Refresh(r.Context(), token)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
	})
}

// handleLogout closes the session and clears the cookie. Idempotent: an
// unknown token still returns success.
//
// POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := s.refreshTokenFrom(r)

	if err := s.authSvc.Logout(r.Context(), token); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.setRefreshCookie(w, "", -time.Hour)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged out"})
}

// refreshTokenFrom reads the refresh token from the cookie, falling
// back to a JSON body for clients that do not hold cookies.
func (s *Server) refreshTokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/v1/auth",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// requireUser is a convenience wrapper used by handlers behind the auth
// middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user := principal(r)
	if user == nil {
		writeUnauthorized(w, "missing access token")
		return nil, false
	}
	return user, true
}

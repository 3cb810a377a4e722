// Package auth provides authentication and session management for Taskforge.
//
// It implements the signup/login/refresh/logout lifecycle with:
//   - A five-rule password strength policy with ordered, itemised violations
//   - Bcrypt password hashing with a configurable cost factor
//   - Short-lived JWT access tokens and long-lived JWT refresh tokens,
//     signed with distinct HS256 secrets
//   - A database-backed session store for refresh tokens, so a token can be
//     revoked by deleting its row
//   - A periodic sweep that removes expired refresh tokens and recomputes
//     each user's advisory login flag
//
// Token validity is decided by two independent checks: the JWT signature and
// expiry, and presence in the session store. A syntactically valid refresh
// token that has been logged out or swept is rejected. The is_login flag on
// users is best-effort only and is never consulted for token validity.
package auth

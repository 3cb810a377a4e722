package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes the two classes of signed tokens.
type TokenKind string

const (
	// TokenKindAccess is the short-lived per-request credential.
	TokenKindAccess TokenKind = "access"

	// TokenKindRefresh is the long-lived credential exchanged for new
	// access tokens. Refresh tokens are additionally tracked in the
	// session store so they can be revoked.
	TokenKindRefresh TokenKind = "refresh"
)

// Claims carries the user identity inside both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
}

// TokenIssuer creates and verifies the two token kinds. Each kind is signed
// with its own HS256 secret and has its own lifetime.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. Zero TTLs select the defaults
// (15 minutes for access, 7 days for refresh).
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Generate creates a signed token of the given kind for a user.
func (i *TokenIssuer) Generate(userID int64, name string, kind TokenKind) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttlFor(kind))),
		},
		UserID: userID,
		Name:   name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse validates a token of the given kind and returns its claims.
//
// A bad signature, a token signed for the other kind, and an elapsed
// lifetime all surface uniformly as ErrTokenInvalid: callers cannot
// distinguish the failure modes, and neither can clients. Parse is
// stateless - refresh-token revocation is the session store's concern.
func (i *TokenIssuer) Parse(raw string, kind TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(_ *jwt.Token) (any, error) {
		return i.secretFor(kind), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user ID", ErrTokenInvalid)
	}

	return claims, nil
}

// RefreshTTL returns the refresh token lifetime. The session sweep uses it
// as its age cutoff so stored tokens and signatures expire together.
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *TokenIssuer) secretFor(kind TokenKind) []byte {
	if kind == TokenKindRefresh {
		return i.refreshSecret
	}
	return i.accessSecret
}

func (i *TokenIssuer) ttlFor(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return i.refreshTTL
	}
	return i.accessTTL
}

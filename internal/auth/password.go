package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the bcrypt cost factor used when none is configured.
const DefaultBcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plaintext password with bcrypt. A cost of zero
// selects DefaultBcryptCost. The salt is generated per call, so hashing the
// same password twice yields different hashes.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
// Returns true if the password matches. The comparison runs in constant
// structure regardless of where a mismatch occurs.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

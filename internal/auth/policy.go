package auth

import (
	"fmt"
	"strings"
	"unicode"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// specialCharacters is the fixed set satisfying the special-character rule.
const specialCharacters = `!@#$%^&*(),.?":{}|<>`

// Password policy violation messages, in the order rules are reported.
var (
	violationLength  = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	violationUpper   = "password must contain at least one uppercase letter (A-Z)"
	violationLower   = "password must contain at least one lowercase letter (a-z)"
	violationDigit   = "password must contain at least one digit (0-9)"
	violationSpecial = fmt.Sprintf("password must contain at least one special character (%s)", specialCharacters)
)

// ValidatePassword checks a candidate password against the strength policy
// and returns the list of violated rules. Every rule is checked - there is
// no short-circuiting - so callers always see the complete list, in a fixed
// order: length, uppercase, lowercase, digit, special. An empty slice means
// the password is acceptable.
func ValidatePassword(password string) []string {
	var violations []string

	if len(password) < minPasswordLength {
		violations = append(violations, violationLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		violations = append(violations, violationUpper)
	}
	if !hasLower {
		violations = append(violations, violationLower)
	}
	if !hasDigit {
		violations = append(violations, violationDigit)
	}
	if !strings.ContainsAny(password, specialCharacters) {
		violations = append(violations, violationSpecial)
	}

	return violations
}

package password

import (
	"errors"
	"strings"
	"unicode"
)

// SpecialChars is an exported constant or variable used by the authentication engine.
//
// It is the exact character set accepted as the "special character" class by
// [ValidatePolicy]. Characters outside this set count toward length only.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

const minPasswordLength = 8

// ErrPolicy is an exported constant or variable used by the authentication engine.
var ErrPolicy = errors.New(
	"password must be at least 8 characters long, contain an uppercase letter, a lowercase letter, and a special character",
)

// ValidatePolicy describes the validatepolicy operation and its observable behavior.
//
// ValidatePolicy may return an error when input validation, dependency calls, or security checks fail.
// ValidatePolicy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The policy requires length >= 8, at least one uppercase letter, one
// lowercase letter, and one character from [SpecialChars]. There is no
// maximum length and no digit requirement.
func ValidatePolicy(password string) error {
	if len(password) < minPasswordLength {
		return ErrPolicy
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}

	if !hasUpper || !hasLower {
		return ErrPolicy
	}
	if !strings.ContainsAny(password, SpecialChars) {
		return ErrPolicy
	}

	return nil
}

package auth

import (
	"regexp"
	"strings"
)

const passwordSpecialCharacters = "!@#$%^&*()_+"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{6,20}$`)

// IsUsernameValid reports whether a username is 6-20 characters of english
// letters, digits, and underscores.
func IsUsernameValid(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsPasswordValid reports whether a password is 8-32 characters drawn from
// letters, digits, and the special set, with at least one uppercase letter,
// one lowercase letter, one digit, and one special character.
func IsPasswordValid(password string) bool {
	if len(password) < 8 || len(password) > 32 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecialCharacters, r):
			hasSpecial = true
		default:
			return false
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

package validators

import (
	"regexp"
	"strings"
)

var (
	nameRegex  = regexp.MustCompile(`^( ?[a-zA-Z]{3,50} ?)+$`)
	emailRegex = regexp.MustCompile(`(?i)^\s*[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\s*$`)

	passwordSpecials = "-+_!@#$%^&*.,?"
)

func IsValidName(name string) bool {
	return nameRegex.MatchString(name)
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPassword requires at least 8 characters with a lower-case letter,
// an upper-case letter, a digit and one of -+_!@#$%^&*.,?
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package validation

import (
	"errors"
	"regexp"
	"strings"
)

// ValidateName validates a profile name field (first or last name)
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateUsername validates the public handle shown on certificates and
// community pages.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)

	if trimmed == "" {
		return errors.New("username is required")
	}

	if len(trimmed) < 3 {
		return errors.New("username is too short (min 3 characters)")
	}

	if len(trimmed) > 30 {
		return errors.New("username is too long (max 30 characters)")
	}

	if !usernameRe.MatchString(trimmed) {
		return errors.New("username may only contain letters, digits, '.', '-' and '_'")
	}

	return nil
}

package validation

import (
	"errors"
	"strings"
)

// commonPasswords are rejected outright regardless of length
var commonPasswords = map[string]bool{
	"password":      true,
	"password1":     true,
	"password123":   true,
	"123456789012":  true,
	"qwertyuiop12":  true,
	"letmeinplease": true,
}

// ValidatePassword enforces the minimum password policy for password-based
// accounts. Passwordless accounts never hit this path.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}

	if len(password) > 128 {
		return errors.New("password is too long (max 128 characters)")
	}

	if commonPasswords[strings.ToLower(password)] {
		return errors.New("password is too common, please choose a stronger one")
	}

	return nil
}

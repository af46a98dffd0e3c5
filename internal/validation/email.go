package validation

import (
	"errors"
	"net/mail"
)

// ValidateEmail checks that email is a single bare RFC 5322 address.
// Account signup and invite creation both go through here, so the error
// text stays user-presentable.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	// 254 is the longest address that fits an SMTP path (RFC 5321).
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}

	// Reject display-name forms like `Fleur <fleur@example.com>`; callers
	// store the address exactly as given.
	if addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}

package utils

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrInvalidEmail = errors.New("invalid email address")

// ValidateEmail accepts a bare address like chef@example.com. Display
// names, angle brackets and dotless domains are rejected even where
// RFC 5322 would allow them.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if addr.Name != "" || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	return nil
}

package validation

import (
	"fmt"
	"net/mail"
	"regexp"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.@+-]{3,50}$`)

// ValidateUsername allows 3-50 letters, digits and _.@+- characters.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-50 characters and contain only letters, numbers and _.@+-")
	}
	return nil
}

// ValidateEmail accepts an empty address; otherwise it must parse as a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email address is invalid")
	}
	return nil
}

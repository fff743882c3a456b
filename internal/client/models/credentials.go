package models

import (
	"fmt"
	"net/mail"
)

// MinPasswordLen is the minimum password length accepted by client-side
// validation. The provider enforces its own policy on top of this.
const MinPasswordLen = 6

// ValidationError reports a client-side credential check failure. It never
// leaves the presentation layer: when validation fails the gateway is not
// called and the session store is not touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SignInData carries the credentials for an existing account. The payload is
// ephemeral and never persisted.
type SignInData struct {
	Email    string
	Password string
}

// SignUpData carries the credentials for a new account. Confirm must repeat
// Password; DisplayName is attached to the profile right after registration.
type SignUpData struct {
	Email       string
	Password    string
	Confirm     string
	DisplayName string
}

// Validate performs the syntactic checks the sign-in screen runs before the
// gateway is invoked.
func (d SignInData) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	return validatePassword(d.Password)
}

// Validate performs the syntactic checks the registration screen runs before
// the gateway is invoked.
func (d SignUpData) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	if err := validatePassword(d.Password); err != nil {
		return err
	}
	if d.Password != d.Confirm {
		return &ValidationError{Field: "confirm", Message: "passwords do not match"}
	}
	if d.DisplayName == "" {
		return &ValidationError{Field: "displayName", Message: "name is required"}
	}
	return nil
}

func validateEmail(s string) error {
	if s == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return &ValidationError{Field: "email", Message: "enter a valid email address"}
	}
	return nil
}

func validatePassword(p string) error {
	if p == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	if len(p) < MinPasswordLen {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLen),
		}
	}
	return nil
}

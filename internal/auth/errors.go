package auth

import (
	"errors"
	"fmt"
)

var (
	ErrAdminCredentialsRequired = errors.New("auth: admin email and password are required")
	ErrInvalidCredentials       = errors.New("auth: invalid credentials")
	ErrUnauthenticated          = errors.New("auth: not signed in")
	ErrSessionKeyTooShort       = errors.New("auth: session key must be at least 32 bytes")
	ErrEmailExists              = errors.New("auth: email already registered")
)

// NotFoundError reports a missing user.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return "user not found"
	}
	return fmt.Sprintf("user %q not found", e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package pages

import (
	"errors"
	"fmt"
)

var (
	ErrSlugExists      = errors.New("pages: slug already exists")
	ErrInvalidSlug     = errors.New("pages: slug contains no valid characters")
	ErrInvalidRequest  = errors.New("pages: invalid request")
	ErrPageIDRequired  = errors.New("pages: page id required")
	ErrRendererMissing = errors.New("pages: renderer not configured")
)

// NotFoundError reports a missing page. Private and inactive pages are
// reported the same way to anonymous viewers.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError wraps field errors from request validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidRequest, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidRequest, e.Err}
}

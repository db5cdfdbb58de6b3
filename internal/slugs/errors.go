package slugs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTitle is returned when a title cannot produce a slug: it is
	// blank, or it normalizes to nothing while FallbackReject is active.
	ErrInvalidTitle = errors.New("slugs: title has no slug characters")
	// ErrSlugResolutionExhausted is returned once the attempt cap is reached.
	ErrSlugResolutionExhausted = errors.New("slugs: resolution attempts exhausted")
)

// ExhaustedError reports the base slug and the number of attempts made before
// giving up.
type ExhaustedError struct {
	Base     string
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("slugs: no free candidate for %q after %d attempts", e.Base, e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return ErrSlugResolutionExhausted
}

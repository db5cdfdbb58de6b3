package assets

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType  = errors.New("assets: unsupported file type")
	ErrAssetTooLarge    = errors.New("assets: file exceeds size limit")
	ErrPageRequired     = errors.New("assets: page id required")
	ErrFileRequired     = errors.New("assets: file body required")
	ErrFilenameRequired = errors.New("assets: filename required")
	ErrStoredNameExists = errors.New("assets: stored filename already exists")
)

// NotFoundError reports a missing asset or page.
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

// SizeError carries the limit that was exceeded.
type SizeError struct {
	Limit int64
	Size  int64
}

func (e *SizeError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("assets: %d bytes exceeds limit of %d", e.Size, e.Limit)
	}
	return fmt.Sprintf("assets: upload exceeds limit of %d bytes", e.Limit)
}

func (e *SizeError) Unwrap() error {
	return ErrAssetTooLarge
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package markdown

import (
	"errors"
	"fmt"
)

// ErrRenderEngineFailure marks failures raised by goldmark or chroma.
var ErrRenderEngineFailure = errors.New("markdown: render engine failure")

// FragmentError describes a fenced code block that could not be
// highlighted. The block is still rendered as plain text.
type FragmentError struct {
	Language string
	Err      error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("markdown: highlight %q fence: %v", e.Language, e.Err)
}

func (e *FragmentError) Unwrap() []error {
	return []error{ErrRenderEngineFailure, e.Err}
}

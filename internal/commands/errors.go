package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to errors returned by Handler.Execute. Classifiers add
// their own domain codes on top of these.
const (
	TextCodeInvalid  = "MDPAGES_COMMAND_INVALID"
	TextCodeCanceled = "MDPAGES_COMMAND_CANCELED"
	TextCodeTimeout  = "MDPAGES_COMMAND_TIMEOUT"
	TextCodeContext  = "MDPAGES_COMMAND_CONTEXT"
	TextCodeFailed   = "MDPAGES_COMMAND_FAILED"
)

// Failure is the category, text code and message a domain error surfaces
// with.
type Failure struct {
	Category goerrors.Category
	TextCode string
	Message  string
}

// Classifier maps a domain error onto a Failure. Returning false keeps the
// generic command failure.
type Classifier func(err error) (Failure, bool)

// Classify tries each classifier in order.
func Classify(classifiers ...Classifier) Classifier {
	return func(err error) (Failure, bool) {
		for _, classify := range classifiers {
			if classify == nil {
				continue
			}
			if f, ok := classify(err); ok {
				return f, true
			}
		}
		return Failure{}, false
	}
}

// When returns a Classifier matching errors that satisfy errors.Is(err, target).
func When(target error, failure Failure) Classifier {
	return func(err error) (Failure, bool) {
		if errors.Is(err, target) {
			return failure, true
		}
		return Failure{}, false
	}
}

// TextCode returns the text code carried by err, or "".
func TextCode(err error) string {
	var e *goerrors.Error
	if errors.As(err, &e) {
		return e.TextCode
	}
	return ""
}

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid command").
		WithTextCode(TextCodeInvalid)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command cancelled").
			WithTextCode(TextCodeCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command timed out").
			WithTextCode(TextCodeTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(TextCodeContext)
	}
}

func wrapExecuteError(err error, classify Classifier) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	if classify != nil {
		if f, ok := classify(err); ok {
			message := f.Message
			if message == "" {
				message = "command failed"
			}
			return goerrors.Wrap(err, f.Category, message).WithTextCode(f.TextCode)
		}
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command failed").
		WithTextCode(TextCodeFailed)
}

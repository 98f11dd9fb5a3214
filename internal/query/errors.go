package query

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is.
var (
	// ErrInput marks a question or corpus that cannot be processed at all.
	ErrInput = errors.New("invalid input")
	// ErrResolution marks a date, time or user that could not be extracted from the question.
	ErrResolution = errors.New("resolution failure")
	// ErrEmptyResult marks filters that left no messages to work with.
	ErrEmptyResult = errors.New("empty result")
	// ErrInternal marks an unexpected failure while answering.
	ErrInternal = errors.New("internal error")
)

// Error carries a caller-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel of the error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func inputError(msg string) error {
	return &Error{Kind: ErrInput, Message: msg}
}

func resolutionError(msg string) error {
	return &Error{Kind: ErrResolution, Message: msg}
}

func emptyResultError(format string, args ...any) error {
	return &Error{Kind: ErrEmptyResult, Message: fmt.Sprintf(format, args...)}
}

func internalError(cause error) error {
	return &Error{Kind: ErrInternal, Message: "Error processing question: " + cause.Error(), Err: cause}
}

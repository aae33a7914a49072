package answers

import (
	"errors"
	"fmt"
)

var (
	ErrMissingImage     = errors.New("no image uploaded")
	ErrEmptyResponse    = errors.New("no response received from model")
	ErrUnexpectedFormat = errors.New("unexpected format from model")
	ErrInferenceTimeout = errors.New("model did not answer in time")
)

// FieldError is a request field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CountMismatchError is returned when a parsed answer list has the wrong length.
type CountMismatchError struct {
	Got  int
	Want int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("answer count (%d) does not match question count (%d)", e.Got, e.Want)
}

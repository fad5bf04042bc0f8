package model

import "errors"

// ErrInvalidInput is the sentinel every ValidationError matches with
// errors.Is.  Handlers translate it into HTTP 400.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes which input was rejected.  Its message is
// safe to show to the caller.
type ValidationError struct {
    Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrInvalidInput) true for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid returns a ValidationError with the given message.
func Invalid(msg string) error { return &ValidationError{Msg: msg} }

package models

import "fmt"

// ValidationError is a user input problem. Handlers recover from it and
// redisplay the form with Error() as the message.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// InvariantError reports corrupted state: a duplicate username or session
// token, or a statement touching more rows than it may. It aborts the request.
type InvariantError struct {
	What string
	err  error
}

func (e *InvariantError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("invariant violated: %s: %v", e.What, e.err)
	}
	return "invariant violated: " + e.What
}

func (e *InvariantError) Unwrap() error {
	return e.err
}

func NewInvariantError(what string, err error) error {
	return &InvariantError{What: what, err: err}
}

// RowCountError builds an InvariantError for a statement that affected an unexpected number of rows.
func RowCountError(op string, got int64) error {
	return &InvariantError{What: fmt.Sprintf("%s affected %d rows", op, got)}
}

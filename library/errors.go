package library

import "errors"

// ValidationError reports malformed or out-of-range input. Handlers surface
// it as a 400 with the message as the response body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ErrNotFound marks lookups of rows that must exist for the operation to
// proceed. Read paths treat unknown users as empty results instead.
var ErrNotFound = errors.New("record not found")

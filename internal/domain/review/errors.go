package review

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a line is not a single JSON object.
var ErrMalformed = errors.New("malformed review payload")

// MissingFieldError names the first mandatory field that could not be resolved.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %s is missing", e.Field)
}

// IsMissingField reports whether err is a MissingFieldError and returns the field name.
func IsMissingField(err error) (string, bool) {
	var mf *MissingFieldError
	if errors.As(err, &mf) {
		return mf.Field, true
	}
	return "", false
}

func missing(field string) error {
	return &MissingFieldError{Field: field}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

package employee

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("employee not found")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

package httperr

import (
	"errors"
	"strings"
)

// ValidationError carries every problem found in one input, not just the
// first one.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

// Err returns nil when nothing was collected.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Messages) == 0 {
		return nil
	}
	return e
}

func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

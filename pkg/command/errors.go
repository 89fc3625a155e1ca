package command

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned by Parse for a line without tokens.
	ErrEmpty = errors.New("empty command")
	// ErrMissingValue marks a keyword found at the end of the line.
	ErrMissingValue = errors.New("missing value")
)

// UnknownVerbError is returned when the first token is not a verb.
type UnknownVerbError struct {
	Word string
}

func (e *UnknownVerbError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Word)
}

// FieldError reports a keyword whose value could not be converted.
type FieldError struct {
	Keyword string
	Value   string
	Err     error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingValue) {
		return fmt.Sprintf("%s: missing value", e.Keyword)
	}
	return fmt.Sprintf("%s %q: %v", e.Keyword, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

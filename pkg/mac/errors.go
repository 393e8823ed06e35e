package mac

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat matches every parse failure via errors.Is.
var ErrInvalidFormat = errors.New("invalid MAC address format")

// FormatError reports malformed MAC address text.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid MAC address %q", e.Input)
	}
	return fmt.Sprintf("invalid MAC address %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

func formatErr(input, reason string) error {
	return &FormatError{Input: input, Reason: reason}
}

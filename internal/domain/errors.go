package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation means a submit was attempted with required fields empty.
	ErrValidation = errors.New("required fields are empty")

	// ErrLookupNotFound means the address service does not know the code.
	ErrLookupNotFound = errors.New("postal code not found")

	// ErrLookupTransport means the address service could not be reached or
	// answered with something unusable.
	ErrLookupTransport = errors.New("postal code lookup failed")

	// ErrMalformedRecord means the stored form record could not be decoded.
	ErrMalformedRecord = errors.New("malformed stored form record")
)

// User-facing notices.
const (
	NoticeValidation     = "fill in all required fields"
	NoticeLookupNotFound = "postal code not found"
	NoticeLookupFailed   = "could not look up postal code"
	NoticeSaved          = "data saved"
)

// ValidationError lists the required fields left empty on submit.
type ValidationError struct {
	Missing []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Notice returns the message shown to the user for err, or "" when err is
// not one of the user-facing failures.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return NoticeValidation
	case errors.Is(err, ErrLookupNotFound):
		return NoticeLookupNotFound
	case errors.Is(err, ErrLookupTransport):
		return NoticeLookupFailed
	}
	return ""
}

package binio

import (
	"fmt"

	"github.com/pkg/errors"
)

// Cursor errors.
var (
	ErrTruncatedStream = errors.New("truncated stream")
	ErrOutOfRange      = errors.New("offset out of range")
	ErrInvalidLength   = errors.New("invalid length")
	ErrAssertion       = errors.New("assertion violated")
)

// AssertionError reports a field that did not hold its expected constant.
// Unknown values are surfaced, not masked: the format is only partially understood.
type AssertionError struct {
	Field  string
	Offset Pointer
	Want   interface{}
	Got    interface{}
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s at %s: %s: want %v, got %v", ErrAssertion, e.Offset, e.Field, e.Want, e.Got)
}

// Is lets errors.Is match ErrAssertion.
func (e *AssertionError) Is(target error) bool {
	return target == ErrAssertion
}

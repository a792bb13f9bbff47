package seeded

import (
	"errors"
	"fmt"
)

// ErrNilValue is returned by seeded views wrapping a nil pointer.
var ErrNilValue = errors.New("seeded: cannot serialize nil value")

// ErrTrailingData is returned by formats when input remains after a value
// was fully decoded.
var ErrTrailingData = errors.New("seeded: trailing data")

// InvalidLengthError reports a sequence which ended before, or after, the
// number of elements a visitor expected.
type InvalidLengthError struct {
	Len      int
	Expected string
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("seeded: invalid length %d, expected %s", e.Len, e.Expected)
}

// InvalidLength returns an error for a sequence of length n, described
// against what exp expected.
func InvalidLength(n int, exp Expected) error {
	return &InvalidLengthError{Len: n, Expected: exp.Expecting()}
}

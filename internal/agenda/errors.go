package agenda

import (
	"errors"
	"fmt"

	"agendacal/internal/datekey"
)

// ErrInvalidRange matches any *InvalidRangeError via errors.Is.
var ErrInvalidRange = errors.New("invalid date range")

// InvalidRangeError reports a fill request whose start is after its end.
// The range is rejected rather than swapped.
type InvalidRangeError struct {
	Start datekey.Key
	End   datekey.Key
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s", e.Start, e.End)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

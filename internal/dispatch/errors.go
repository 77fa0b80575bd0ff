package dispatch

import (
	"errors"
	"fmt"
)

var ErrInvalidPayload = errors.New("invalid payload")

// InvalidPayloadError identifies the offending item of a request. Index is -1 for
// single sends.
type InvalidPayloadError struct {
	Index  int
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid payload: %s", e.Reason)
	}
	return fmt.Sprintf("invalid payload at item %d: %s", e.Index, e.Reason)
}

func (e *InvalidPayloadError) Is(target error) bool { return target == ErrInvalidPayload }

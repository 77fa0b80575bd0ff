package session

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPairingTimeout  = errors.New("pairing code not issued in time")
	ErrNotConnected    = errors.New("session is not connected")
	ErrSessionClosed   = errors.New("session closed")
	ErrInvalidSession  = errors.New("invalid session id: use letters, numbers, dash, underscore")

	// ErrAlreadyConnected ends a pairing wait because the session paired meanwhile.
	ErrAlreadyConnected = errors.New("session already connected")
)

// TransportClosedError describes why a transport went away. It is logged, never
// returned to API callers.
type TransportClosedError struct {
	Reason CloseReason
	Err    error
}

func (e *TransportClosedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport closed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transport closed (%s)", e.Reason)
}

func (e *TransportClosedError) Unwrap() error { return e.Err }

// SendError wraps a failure of the underlying transport send call.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "send failed: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

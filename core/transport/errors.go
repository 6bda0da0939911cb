package transport

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted = errors.New("transport session already started")
	ErrNotOpen        = errors.New("transport session is not open")
	ErrQueueFull      = errors.New("outbound queue is full")
	ErrClosed         = errors.New("transport session closed")
)

// ConnectionError reports that the connection failed to open or dropped.
// It is retryable by opening a new session.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connection error during %s", e.Op)
	}
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

package workqueue

import (
	"fmt"
	"time"
)

type (
	// ErrClosed is returned by Send once the queue has been closed, and by
	// Receive once the queue has been closed and fully drained.
	ErrClosed struct{}

	// ErrTimedOut is returned when an optional send/receive timeout elapses.
	ErrTimedOut struct {
		Timeout time.Duration
	}
)

func (e ErrClosed) Error() string {
	return "queue is closed"
}

func (e ErrTimedOut) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Timeout.String())
}

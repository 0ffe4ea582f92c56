package harness

import "fmt"

// ErrorKind classifies the ways in which processing a single request can
// fail.
type ErrorKind int

const (
	// ErrorValidation indicates the request failed a structural precondition
	// before the resource was ever touched.
	ErrorValidation ErrorKind = iota
	// ErrorConnection indicates acquiring a resource handle from the shared
	// pool failed. It triggers the worker's self-healing path.
	ErrorConnection
	// ErrorDatabase indicates the unit of work itself failed after a handle
	// was obtained.
	ErrorDatabase
	// ErrorProcessing is the catch-all for failures not otherwise
	// classified.
	ErrorProcessing
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorValidation:
		return "validation error"
	case ErrorConnection:
		return "connection error"
	case ErrorDatabase:
		return "database error"
	case ErrorProcessing:
		return "processing error"
	default:
		return "unrecognized error"
	}
}

// Status maps an error kind onto the response status reported to the caller.
func (k ErrorKind) Status() ResponseStatus {
	switch k {
	case ErrorValidation:
		return StatusInvalid
	case ErrorConnection:
		return StatusConnectionError
	default:
		return StatusFailed
	}
}

// WorkerError wraps a per-request failure with its classification. All
// worker errors are recovered locally inside the worker and turned into a
// WorkResponse; none terminate a worker.
type WorkerError struct {
	Kind     ErrorKind
	Message  string
	Upstream error
}

var _ error = (*WorkerError)(nil)

// NewWorkerError creates a classified error from the given kind and upstream
// cause (can be nil).
func NewWorkerError(kind ErrorKind, message string, upstream error) *WorkerError {
	if len(message) == 0 {
		message = kind.String()
	}
	return &WorkerError{
		Kind:     kind,
		Message:  message,
		Upstream: upstream,
	}
}

func (e *WorkerError) Error() string {
	if e.Upstream != nil {
		return fmt.Sprintf("%s. Caused by: %s", e.Message, e.Upstream.Error())
	}
	return e.Message
}

func (e *WorkerError) Unwrap() error {
	return e.Upstream
}

func newValidationError(message string) *WorkerError {
	return NewWorkerError(ErrorValidation, message, nil)
}

func newConnectionError(upstream error) *WorkerError {
	return NewWorkerError(ErrorConnection, "failed to acquire resource handle", upstream)
}

func newDatabaseError(upstream error) *WorkerError {
	return NewWorkerError(ErrorDatabase, "unit of work failed", upstream)
}

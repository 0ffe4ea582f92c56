package harness

// ResponseStatus is the closed set of outcomes a processed request can have.
type ResponseStatus string

const (
	StatusCompleted       ResponseStatus = "completed"
	StatusFailed          ResponseStatus = "failed"
	StatusInvalid         ResponseStatus = "invalid"
	StatusConnectionError ResponseStatus = "connection_error"
)

// WorkRequest is a single synthetic unit of load. It is immutable once
// created: the load generator owns it until it is enqueued, after which it
// belongs to whichever worker dequeues it.
type WorkRequest struct {
	ID string `json:"id"`
}

// WorkResponse is created exactly once per request, by the worker that
// processed it, and sent exactly once over the request's reply channel.
type WorkResponse struct {
	Success bool           `json:"success"`
	ID      string         `json:"id,omitempty"`
	Status  ResponseStatus `json:"status"`
}

// NewSuccessResponse builds the response for a completed request.
func NewSuccessResponse(id string) WorkResponse {
	return WorkResponse{
		Success: true,
		ID:      id,
		Status:  StatusCompleted,
	}
}

// NewFailureResponse builds the response for a failed request with the given
// status.
func NewFailureResponse(id string, status ResponseStatus) WorkResponse {
	return WorkResponse{
		Success: false,
		ID:      id,
		Status:  status,
	}
}

// WorkItem pairs a request with its dedicated one-shot reply channel. The
// worker that dequeues the item is the only writer on the reply channel, and
// the original enqueuer is the only reader. Reply channels are never reused.
type WorkItem struct {
	Request WorkRequest
	Reply   chan WorkResponse
}

// NewWorkItem wraps the given request together with a fresh single-slot
// reply channel, returning the receive side for the enqueuer to await (or
// ignore, making the request fire-and-forget).
func NewWorkItem(req WorkRequest) (WorkItem, <-chan WorkResponse) {
	reply := make(chan WorkResponse, 1)
	return WorkItem{Request: req, Reply: reply}, reply
}

package workqueue

import (
	"fmt"
	"sync"
	"time"
)

// State allows us to keep track of the current state of the queue.
type State string

const (
	Open   State = "open"
	Closed State = "closed"
)

// Queue is a bounded FIFO queue safe for use by multiple concurrent
// producers and consumers. Send blocks while the queue is full, which is the
// sole backpressure mechanism between producers and consumers. Closing the
// queue is the shutdown signal: subsequent sends fail immediately, while
// receivers first drain whatever was admitted before the close.
type Queue[T any] struct {
	mtx         sync.RWMutex
	ch          chan T
	maxCapacity int
	state       State
}

// New creates an open queue with the given fixed capacity. Capacities below
// 1 are treated as 1.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		ch:          make(chan T, capacity),
		maxCapacity: capacity,
		state:       Open,
	}
}

// MaxCapacity reports the preconfigured maximum capacity of this queue.
func (q *Queue[T]) MaxCapacity() int {
	return q.maxCapacity
}

// State reports the current state of this queue.
func (q *Queue[T]) State() State {
	q.mtx.RLock()
	defer q.mtx.RUnlock()
	return q.state
}

// Size returns the number of items buffered in the queue right now. Items
// admitted before a close still count until they are drained.
func (q *Queue[T]) Size() int {
	return len(q.ch)
}

// Send enqueues the given item, blocking while the queue is full. It returns
// ErrClosed once the queue has been closed, and ErrTimedOut if the optional
// timeout parameter is supplied and elapses first.
func (q *Queue[T]) Send(item T, timeout ...time.Duration) error {
	// we do a read lock here, which allows for multiple senders and
	// receivers, but prevents the queue from closing mid-send
	q.mtx.RLock()
	defer q.mtx.RUnlock()
	if q.state == Closed {
		return ErrClosed{}
	}

	if len(timeout) == 0 {
		q.ch <- item
		return nil
	}
	select {
	case q.ch <- item:
		return nil

	case <-time.After(timeout[0]):
		return ErrTimedOut{Timeout: timeout[0]}
	}
}

// Receive dequeues the next item, blocking while the queue is empty. Once
// the queue has been closed, Receive continues to return the items admitted
// before the close, and returns ErrClosed only when the queue is both closed
// and empty. An optional timeout bounds the wait.
func (q *Queue[T]) Receive(timeout ...time.Duration) (T, error) {
	var zero T
	if len(timeout) == 0 {
		item, ok := <-q.ch
		if !ok {
			return zero, ErrClosed{}
		}
		return item, nil
	}
	select {
	case item, ok := <-q.ch:
		if !ok {
			return zero, ErrClosed{}
		}
		return item, nil

	case <-time.After(timeout[0]):
		return zero, ErrTimedOut{Timeout: timeout[0]}
	}
}

// Close will attempt to close the queue if it's open. It is safe to call
// more than once. Receivers drain any remaining items before seeing
// ErrClosed.
func (q *Queue[T]) Close() {
	// allow no sends during this operation
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.state == Closed {
		return
	}
	close(q.ch)
	q.state = Closed
}

func (q *Queue[T]) String() string {
	q.mtx.RLock()
	defer q.mtx.RUnlock()
	return fmt.Sprintf("Queue{state=%s, maxCapacity=%d}", q.state, q.maxCapacity)
}

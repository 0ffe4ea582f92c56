package workqueue_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/dbpulse/dbpulse/pkg/workqueue"
	"github.com/stretchr/testify/require"
)

func TestBasicSendAndReceive(t *testing.T) {
	q := workqueue.New[string](1)
	defer q.Close()
	require.NoError(t, q.Send("hello"))
	m, err := q.Receive()
	require.NoError(t, err)
	require.Equal(t, "hello", m)
}

func TestGetters(t *testing.T) {
	q := workqueue.New[int](4)
	defer q.Close()
	require.Equal(t, 4, q.MaxCapacity())
	require.Equal(t, workqueue.Open, q.State())
	require.Equal(t, 0, q.Size())
}

func TestSendBlocksWhenFull(t *testing.T) {
	q := workqueue.New[string](1)
	defer q.Close()

	// fill the queue
	require.NoError(t, q.Send("message 1"))

	donec := make(chan struct{})
	var err error
	go func() {
		defer close(donec)
		// this should block until the receive below
		err = q.Send("message 2")
	}()

	select {
	case <-donec:
		t.Fatal("Send on a full queue should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	m, rerr := q.Receive()
	require.NoError(t, rerr)
	require.Equal(t, "message 1", m)

	select {
	case <-donec:
		require.NoError(t, err)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Blocked send did not complete after a receive freed capacity")
	}
}

func TestSendWithTimeout(t *testing.T) {
	q := workqueue.New[string](1)
	defer q.Close()

	require.NoError(t, q.Send("message 1"))

	err := q.Send("message 2", 50*time.Millisecond)
	require.Error(t, err)
	_, isTimeout := err.(workqueue.ErrTimedOut)
	require.True(t, isTimeout, "expected error to be of type ErrTimedOut")
}

func TestReceiveWithTimeout(t *testing.T) {
	q := workqueue.New[string](1)
	defer q.Close()

	_, err := q.Receive(50 * time.Millisecond)
	require.Error(t, err)
	_, isTimeout := err.(workqueue.ErrTimedOut)
	require.True(t, isTimeout, "expected error to be of type ErrTimedOut")
}

func TestCloseDrainsRemainingItems(t *testing.T) {
	q := workqueue.New[string](5)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Send(fmt.Sprintf("message %d", i)))
	}
	q.Close()
	require.Equal(t, workqueue.Closed, q.State())

	// everything admitted before the close must still come out, in order
	for i := 0; i < 5; i++ {
		m, err := q.Receive()
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("message %d", i), m)
	}

	_, err := q.Receive()
	require.Error(t, err)
	_, isClosed := err.(workqueue.ErrClosed)
	require.True(t, isClosed, "expected error to be of type ErrClosed")
}

func TestSendAfterCloseFails(t *testing.T) {
	q := workqueue.New[string](1)
	q.Close()

	err := q.Send("too late")
	require.Error(t, err)
	_, isClosed := err.(workqueue.ErrClosed)
	require.True(t, isClosed, "expected error to be of type ErrClosed")

	// closing again must be a no-op
	q.Close()
}

func TestMultipleProducersAndConsumers(t *testing.T) {
	const producers = 4
	const perProducer = 25
	q := workqueue.New[int](8)

	for p := 0; p < producers; p++ {
		go func(p int) {
			for i := 0; i < perProducer; i++ {
				_ = q.Send(p*perProducer + i)
			}
		}(p)
	}

	seen := make(map[int]bool)
	resultc := make(chan int, producers*perProducer)
	for c := 0; c < 3; c++ {
		go func() {
			for {
				v, err := q.Receive()
				if err != nil {
					return
				}
				resultc <- v
			}
		}()
	}

	for i := 0; i < producers*perProducer; i++ {
		select {
		case v := <-resultc:
			require.False(t, seen[v], "item %d received more than once", v)
			seen[v] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for item %d of %d", i+1, producers*perProducer)
		}
	}
	q.Close()
}

package bridge

import (
	"sync"
	"time"

	"github.com/craftlane/chatbridge/core"
)

// eventQueue is the bounded FIFO between one invocation worker and one stream
// driver. Closing it flips every subsequent or blocked Push into a drop,
// which is how an abandoned worker is prevented from blocking forever.
type eventQueue struct {
	events    chan core.StreamEvent
	done      chan struct{}
	closeOnce sync.Once
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{
		events: make(chan core.StreamEvent, size),
		done:   make(chan struct{}),
	}
}

// Push delivers ev to the consumer, blocking while the queue is full. It
// returns false without delivering once the queue has been closed.
func (q *eventQueue) Push(ev core.StreamEvent) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.events <- ev:
		return true
	case <-q.done:
		return false
	}
}

// Poll waits up to timeout for the next event. The second return value is
// false if the timeout elapsed first.
func (q *eventQueue) Poll(timeout time.Duration) (core.StreamEvent, bool) {
	select {
	case ev := <-q.events:
		return ev, true
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-q.events:
		return ev, true
	case <-timer.C:
		return core.StreamEvent{}, false
	}
}

// Len reports the number of buffered events.
func (q *eventQueue) Len() int {
	return len(q.events)
}

// Close marks the consumer as gone. Safe to call more than once.
func (q *eventQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

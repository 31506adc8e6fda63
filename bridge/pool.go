package bridge

import (
	"context"
	"fmt"
)

// workerPool bounds the number of invocation workers alive at once. A slot is
// held for the full lifetime of the agent call, so workers abandoned by
// cancelled streams still count against the limit until they return.
type workerPool struct {
	slots chan struct{} // nil means unlimited
}

// newWorkerPool creates a pool allowing at most max concurrent workers.
// If max == 0, no limit is enforced.
func newWorkerPool(max int) *workerPool {
	if max <= 0 {
		return &workerPool{}
	}
	return &workerPool{slots: make(chan struct{}, max)}
}

// acquire claims a worker slot, blocking until one frees up or ctx ends.
func (p *workerPool) acquire(ctx context.Context) error {
	if p.slots == nil {
		return nil
	}
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for worker slot: %w", ctx.Err())
	}
}

// release frees a previously acquired slot.
func (p *workerPool) release() {
	if p.slots == nil {
		return
	}
	<-p.slots
}

// inFlight returns the number of currently held slots, or -1 if unlimited.
func (p *workerPool) inFlight() int {
	if p.slots == nil {
		return -1
	}
	return len(p.slots)
}

// Package bridge converts a blocking, callback-driven agent invocation into
// an ordered stream of wire chunks.
//
// Three cooperating pieces make up the bridge:
//
//   - An event queue carries incremental events from the invocation worker to
//     the stream driver. It is bounded and drops events once the driver has
//     gone away, so abandoned workers never block.
//   - The invocation worker runs the blocking agent call on its own goroutine
//     and translates partial callbacks into queue events, finishing with
//     exactly one terminal event.
//   - The stream driver polls the queue, coalesces token fragments into
//     batches, deduplicates repeated tool announcements, and emits chunks on
//     the channel handed to the caller.
//
// Cancellation is abandon-in-place: cancelling the stream context stops the
// driver immediately, while the in-flight agent call runs to completion in
// the background with its remaining events discarded. A worker pool bounds
// how many calls, abandoned ones included, may be in flight at once.
package bridge

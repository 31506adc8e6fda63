package bridge

import (
	"strings"
	"time"
)

// tokenBatcher coalesces token fragments so the stream emits fewer, larger
// chunks. A batch is flushed when it holds maxSize fragments, when its oldest
// fragment exceeds the window, or explicitly before any non-token chunk so
// ordering across chunk types is preserved.
type tokenBatcher struct {
	maxSize int
	window  time.Duration

	parts   []string
	started time.Time // arrival of the oldest pending fragment
}

func newTokenBatcher(maxSize int, window time.Duration) *tokenBatcher {
	return &tokenBatcher{maxSize: maxSize, window: window}
}

func (b *tokenBatcher) add(text string) {
	if len(b.parts) == 0 {
		b.started = time.Now()
	}
	b.parts = append(b.parts, text)
}

func (b *tokenBatcher) full() bool {
	return len(b.parts) >= b.maxSize
}

// aged reports whether the pending batch has waited past the batching window.
func (b *tokenBatcher) aged(now time.Time) bool {
	return len(b.parts) > 0 && now.Sub(b.started) > b.window
}

// flush returns the concatenated pending fragments and resets the batch. The
// second return value is false when nothing was pending.
func (b *tokenBatcher) flush() (string, bool) {
	if len(b.parts) == 0 {
		return "", false
	}
	text := strings.Join(b.parts, "")
	b.parts = b.parts[:0]
	return text, true
}

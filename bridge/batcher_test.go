package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBatcherFlushJoinsFragments(t *testing.T) {
	b := newTokenBatcher(5, 10*time.Millisecond)

	b.add("Hel")
	b.add("lo")
	b.add(" world")

	text, ok := b.flush()
	require.True(t, ok)
	assert.Equal(t, "Hello world", text)

	_, ok = b.flush()
	assert.False(t, ok, "flush after flush should report empty")
}

func TestTokenBatcherFullAtMaxSize(t *testing.T) {
	b := newTokenBatcher(3, 10*time.Millisecond)

	b.add("a")
	b.add("b")
	assert.False(t, b.full())

	b.add("c")
	assert.True(t, b.full())
}

func TestTokenBatcherAged(t *testing.T) {
	b := newTokenBatcher(5, 10*time.Millisecond)

	now := time.Now()
	assert.False(t, b.aged(now), "empty batch never ages")

	b.add("x")
	assert.False(t, b.aged(b.started.Add(5*time.Millisecond)))
	assert.True(t, b.aged(b.started.Add(11*time.Millisecond)))
}

package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with a real BPE encoding. Initialization is
// deferred to the first Count so constructing the counter never fails; if the
// encoding cannot be loaded the counter falls back to the heuristic estimate.
type TiktokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	fallback *HeuristicCounter
}

// NewTiktokenCounter creates a counter for the given tiktoken encoding name
// (for example "cl100k_base" or "o200k_base").
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding, fallback: NewHeuristicCounter()}
}

// Count returns the exact token count for text, or the heuristic estimate if
// the encoding failed to load.
func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return c.fallback.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

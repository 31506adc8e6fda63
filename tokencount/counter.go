package tokencount

// Counter estimates the token cost of a text. Implementations must be safe
// for concurrent use.
type Counter interface {
	Count(text string) int
}

// DefaultCharsPerToken is the divisor of the heuristic estimate. Roughly four
// characters of English text map to one model token.
const DefaultCharsPerToken = 4

// HeuristicCounter estimates tokens from the character count. It is
// deliberately cheap and deterministic; the context manager compensates for
// its optimism with a buffer factor.
type HeuristicCounter struct {
	charsPerToken int
}

// NewHeuristicCounter creates a counter with the default chars-per-token
// divisor.
func NewHeuristicCounter() *HeuristicCounter {
	return &HeuristicCounter{charsPerToken: DefaultCharsPerToken}
}

// WithCharsPerToken overrides the divisor. Values below 1 are ignored.
func (c *HeuristicCounter) WithCharsPerToken(n int) *HeuristicCounter {
	if n >= 1 {
		c.charsPerToken = n
	}
	return c
}

// Count returns len(text) / charsPerToken, truncated.
func (c *HeuristicCounter) Count(text string) int {
	return len(text) / c.charsPerToken
}

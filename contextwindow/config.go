package contextwindow

// Config defines sizing and summarization parameters for context building.
type Config struct {
	// ModelID selects the token limit from TokenLimits.
	ModelID string

	// TokenLimits maps model identifiers to their context window sizes.
	TokenLimits map[string]int

	// DefaultTokenLimit applies when ModelID has no TokenLimits entry.
	DefaultTokenLimit int

	// PreserveRecent is the number of most recent turns kept verbatim when
	// summarizing. Twice this many turns are loaded from the store so the
	// summarizer has older material to compress.
	PreserveRecent int

	// BufferFactor inflates the raw token estimate to cover formatting and
	// system prompt overhead.
	BufferFactor float64

	// MaxUserExcerpts caps how many user requests the summary quotes.
	MaxUserExcerpts int

	// ExcerptLen is the character length at which a quoted request is
	// truncated with an ellipsis.
	ExcerptLen int

	// MaxActions caps how many distinct tool actions the summary lists.
	MaxActions int
}

// DefaultConfig provides limits matching the models the backend routes to.
var DefaultConfig = Config{
	ModelID: "amazon.nova-lite-v1:0",
	TokenLimits: map[string]int{
		"amazon.nova-lite-v1:0":                  300000,
		"amazon.nova-pro-v1:0":                   300000,
		"anthropic.claude-3-haiku-20240307-v1:0": 200000,
	},
	DefaultTokenLimit: 200000,
	PreserveRecent:    10,
	BufferFactor:      1.2,
	MaxUserExcerpts:   5,
	ExcerptLen:        200,
	MaxActions:        5,
}

func (c Config) normalized() Config {
	d := DefaultConfig
	if c.DefaultTokenLimit <= 0 {
		c.DefaultTokenLimit = d.DefaultTokenLimit
	}
	if c.PreserveRecent <= 0 {
		c.PreserveRecent = d.PreserveRecent
	}
	if c.BufferFactor <= 0 {
		c.BufferFactor = d.BufferFactor
	}
	if c.MaxUserExcerpts <= 0 {
		c.MaxUserExcerpts = d.MaxUserExcerpts
	}
	if c.ExcerptLen <= 0 {
		c.ExcerptLen = d.ExcerptLen
	}
	if c.MaxActions <= 0 {
		c.MaxActions = d.MaxActions
	}
	return c
}

// tokenLimit resolves the effective limit for the configured model.
func (c Config) tokenLimit() int {
	if limit, ok := c.TokenLimits[c.ModelID]; ok {
		return limit
	}
	return c.DefaultTokenLimit
}

package core

// ChunkType discriminates the wire chunks visible past the system boundary.
type ChunkType string

const (
	// ChunkToken carries coalesced output text.
	ChunkToken ChunkType = "token"
	// ChunkToolStart announces a tool beginning execution.
	ChunkToolStart ChunkType = "tool_start"
	// ChunkComplete terminates a successful stream.
	ChunkComplete ChunkType = "complete"
	// ChunkError terminates a failed stream.
	ChunkError ChunkType = "error"
)

// StreamChunk is the externally visible unit of streamed output. Exactly one
// ChunkComplete or ChunkError is emitted per streamed request, always last.
type StreamChunk struct {
	Type      ChunkType `json:"type"`
	Content   string    `json:"content,omitempty"`
	ToolName  string    `json:"tool_name,omitempty"`
	Error     string    `json:"error,omitempty"`
	AgentType AgentType `json:"agent_type,omitempty"`
}

// Terminal reports whether the chunk ends the stream.
func (c StreamChunk) Terminal() bool {
	return c.Type == ChunkComplete || c.Type == ChunkError
}

// TokenChunk builds a token chunk tagged with the producing agent.
func TokenChunk(content string, agentType AgentType) StreamChunk {
	return StreamChunk{Type: ChunkToken, Content: content, AgentType: agentType}
}

// ToolStartChunk builds a tool-start chunk tagged with the producing agent.
func ToolStartChunk(toolName string, agentType AgentType) StreamChunk {
	return StreamChunk{Type: ChunkToolStart, ToolName: toolName, AgentType: agentType}
}

// CompleteChunk builds the terminal chunk of a successful stream.
func CompleteChunk(agentType AgentType) StreamChunk {
	return StreamChunk{Type: ChunkComplete, AgentType: agentType}
}

// ErrorChunk builds the terminal chunk of a failed stream.
func ErrorChunk(message string) StreamChunk {
	return StreamChunk{Type: ChunkError, Error: message}
}

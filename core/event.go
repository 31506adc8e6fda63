package core

import "time"

// EventType discriminates the internal events flowing from an invocation
// worker to the stream driver.
type EventType string

const (
	// EventToken carries an incremental text fragment.
	EventToken EventType = "token"
	// EventToolStart reports a named tool beginning execution.
	EventToolStart EventType = "tool_start"
	// EventError is the terminal event of a failed invocation.
	EventError EventType = "error"
	// EventDone is the terminal event of a successful invocation.
	EventDone EventType = "done"
)

// StreamEvent is the internal unit passed over the event queue. Exactly one
// producer (the worker callback) creates events for a given invocation and
// exactly one consumer (the stream driver) reads them; their lifetime is the
// duration of that invocation.
type StreamEvent struct {
	Type     EventType
	Text     string // token fragment (EventToken)
	ToolName string // tool name (EventToolStart)
	Message  string // failure description (EventError)
	At       time.Time
}

// Terminal reports whether the event ends the invocation stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// TokenEvent builds a token event stamped with the current time.
func TokenEvent(text string) StreamEvent {
	return StreamEvent{Type: EventToken, Text: text, At: time.Now()}
}

// ToolStartEvent builds a tool-start event stamped with the current time.
func ToolStartEvent(name string) StreamEvent {
	return StreamEvent{Type: EventToolStart, ToolName: name, At: time.Now()}
}

// ErrorEvent builds the terminal event of a failed invocation.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message, At: time.Now()}
}

// DoneEvent builds the terminal event of a successful invocation.
func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone, At: time.Now()}
}

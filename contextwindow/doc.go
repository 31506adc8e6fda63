// Package contextwindow builds the conversation context string handed to the
// agent before each invocation and keeps it inside the model's token budget.
//
// The manager loads recent history from the conversation store, estimates the
// token cost with a pluggable counter, and, when the estimate exceeds the
// model's limit, compresses everything but the most recent turns into a
// single synthetic summary turn. Context building degrades rather than
// fails: any error along the way yields an empty context so the conversation
// can continue without history.
package contextwindow

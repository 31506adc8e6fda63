// Package core defines the shared domain types of chatbridge: conversation
// turns (Message), the internal stream events produced by an invocation
// worker (StreamEvent), the externally visible wire chunks (StreamChunk) and
// the collaborator interfaces the bridge and context manager depend on
// (ConversationStore, ProfileProvider).
//
// The types here are intentionally small and free of behavior beyond
// construction helpers; orchestration lives in the bridge and contextwindow
// packages. Messages are immutable once created; summarization supersedes
// older turns with a synthetic summary turn, it never edits them.
package core

// Package tokencount provides token estimation for context budget decisions.
//
// The default HeuristicCounter reproduces the coarse chars/4 estimate used by
// the context manager; TiktokenCounter offers exact BPE counts for models
// with a known tiktoken encoding. Both satisfy Counter so the summarization
// state machine never needs to know which one is plugged in.
package tokencount

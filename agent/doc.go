// Package agent defines the invocation collaborator consumed by the
// streaming bridge: a Runner executes one blocking model-agent call against a
// prepared prompt and reports partial output through a callback while the
// call is in flight.
//
// Concrete runners live in the anthropic and openai subpackages; the
// ScriptedRunner in this package replays a deterministic event script and is
// used by tests and examples.
package agent

package agent

import (
	"context"

	"github.com/craftlane/chatbridge/core"
)

// Partial is one incremental notification surfaced by a Runner while Invoke
// blocks. Either Text or ToolName is set, never both.
type Partial struct {
	Text     string // incremental output text
	ToolName string // tool reported as starting
}

// PartialFunc receives partial notifications in production order. It is
// always called from the goroutine running Invoke; implementations must not
// block for long.
type PartialFunc func(p Partial)

// Result is the final outcome of a successful invocation.
type Result struct {
	Text       string // complete output text
	StopReason string // provider stop reason ("stop", "end_turn", ...)
}

// Info describes a runner implementation.
type Info struct {
	Name      string
	AgentType core.AgentType
}

// Runner executes one blocking model-agent call. The callback is invoked
// zero or more times before Invoke returns. Runners are not required to honor
// ctx cancellation mid-call; callers must treat a running Invoke as
// potentially uninterruptible (see the bridge's abandon-in-place policy).
type Runner interface {
	Invoke(ctx context.Context, prompt string, onPartial PartialFunc) (Result, error)
	Info() Info
}

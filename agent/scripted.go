package agent

import (
	"context"
	"strings"
	"time"

	"github.com/craftlane/chatbridge/core"
)

// ScriptStep is one notification replayed by a ScriptedRunner. Fields are
// applied in order: optional delay, then token, then tool, then error.
type ScriptStep struct {
	Delay time.Duration // pause before emitting this step
	Token string        // partial text to report
	Tool  string        // tool name to report
	Err   error         // abort the invocation with this error
}

// ScriptedRunner replays a fixed sequence of partial notifications. It is the
// deterministic in-memory Runner used by tests and examples.
type ScriptedRunner struct {
	name      string
	agentType core.AgentType
	steps     []ScriptStep
}

// NewScriptedRunner constructs a runner replaying steps under the given name.
func NewScriptedRunner(name string, steps ...ScriptStep) *ScriptedRunner {
	return &ScriptedRunner{name: name, agentType: core.AgentTypeSupervisor, steps: steps}
}

// WithAgentType overrides the agent type reported by Info.
func (r *ScriptedRunner) WithAgentType(t core.AgentType) *ScriptedRunner {
	r.agentType = t
	return r
}

// Invoke implements Runner by replaying the script. The accumulated token
// text becomes the Result text.
func (r *ScriptedRunner) Invoke(ctx context.Context, _ string, onPartial PartialFunc) (Result, error) {
	var text strings.Builder
	for _, step := range r.steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(step.Delay):
			}
		}
		if step.Token != "" {
			text.WriteString(step.Token)
			if onPartial != nil {
				onPartial(Partial{Text: step.Token})
			}
		}
		if step.Tool != "" && onPartial != nil {
			onPartial(Partial{ToolName: step.Tool})
		}
		if step.Err != nil {
			return Result{}, step.Err
		}
	}
	return Result{Text: text.String(), StopReason: "stop"}, nil
}

// Info implements Runner.
func (r *ScriptedRunner) Info() Info {
	return Info{Name: r.name, AgentType: r.agentType}
}

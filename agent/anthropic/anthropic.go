// Package anthropic provides an agent.Runner over the Anthropic Messages
// streaming API. Text deltas and tool-use block starts are surfaced through
// the partial callback as they arrive.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
)

// Options configures the Anthropic runner (model id, temperature, max tokens,
// system prompt, API key). Extend via functional options to preserve
// stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	System      string
	APIKey      string
	AgentType   core.AgentType
}

// Runner wraps the Anthropic Messages API behind the agent.Runner interface.
type Runner struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		AgentType:   core.AgentTypeSupervisor,
	}
}

// NewRunner creates a runner using the official client.
func NewRunner(optFns ...func(o *Options)) *Runner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Runner{client: &client, opts: opts}
}

// NewRunnerFromClient creates a runner from an existing client.
func NewRunnerFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Runner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{client: client, opts: opts}
}

// Invoke implements agent.Runner. It blocks until the streamed message
// completes, reporting each text delta and each tool-use block start through
// onPartial.
func (r *Runner) Invoke(ctx context.Context, prompt string, onPartial agent.PartialFunc) (agent.Result, error) {
	params := anthropic.MessageNewParams{
		Model:       r.opts.Model,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: anthropic.Float(r.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if r.opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.opts.System}}
	}

	stream := r.client.Messages.NewStreaming(ctx, params)

	var text strings.Builder
	stopReason := ""

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if toolUse, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok && onPartial != nil {
				onPartial(agent.Partial{ToolName: toolUse.Name})
			}
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				text.WriteString(delta.Text)
				if onPartial != nil {
					onPartial(agent.Partial{Text: delta.Text})
				}
			}
		case anthropic.MessageDeltaEvent:
			if ev.Delta.StopReason != "" {
				stopReason = string(ev.Delta.StopReason)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return agent.Result{}, fmt.Errorf("anthropic streaming error: %w", err)
	}

	if stopReason == "" {
		stopReason = "end_turn"
	}
	return agent.Result{Text: text.String(), StopReason: stopReason}, nil
}

// Info implements agent.Runner.
func (r *Runner) Info() agent.Info {
	return agent.Info{Name: string(r.opts.Model), AgentType: r.opts.AgentType}
}

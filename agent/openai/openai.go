// Package openai provides an agent.Runner over the OpenAI Chat Completions
// streaming API. Content deltas and tool-call name deltas are surfaced
// through the partial callback as they arrive.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
)

// Options configure the OpenAI runner. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	System              string
	AgentType           core.AgentType
}

// Runner wraps the OpenAI Chat Completions API behind the agent.Runner
// interface.
type Runner struct {
	client *openai.Client
	opts   Options
}

// NewRunner creates a runner using the official client.
func NewRunner(optFns ...func(o *Options)) *Runner {
	client := openai.NewClient()
	return NewRunnerFromClient(&client, optFns...)
}

// NewRunnerFromClient creates a runner from an existing client.
func NewRunnerFromClient(client *openai.Client, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		AgentType:           core.AgentTypeSupervisor,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{client: client, opts: opts}
}

// Invoke implements agent.Runner. It blocks until the streamed completion
// finishes, reporting each content delta and the first appearance of each
// tool-call name through onPartial.
func (r *Runner) Invoke(ctx context.Context, prompt string, onPartial agent.PartialFunc) (agent.Result, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if r.opts.System != "" {
		messages = append(messages, openai.SystemMessage(r.opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               r.opts.Model,
		Temperature:         openai.Float(r.opts.Temperature),
		MaxCompletionTokens: openai.Int(r.opts.MaxCompletionTokens),
	}

	stream := r.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	stopReason := ""

	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				text.WriteString(ch.Delta.Content)
				if onPartial != nil {
					onPartial(agent.Partial{Text: ch.Delta.Content})
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				if tc.Function.Name != "" && onPartial != nil {
					onPartial(agent.Partial{ToolName: tc.Function.Name})
				}
			}
			if ch.FinishReason != "" {
				stopReason = ch.FinishReason
			}
		}
	}
	if err := stream.Err(); err != nil {
		return agent.Result{}, fmt.Errorf("openai streaming error: %w", err)
	}

	if stopReason == "" {
		stopReason = "stop"
	}
	return agent.Result{Text: text.String(), StopReason: stopReason}, nil
}

// Info implements agent.Runner.
func (r *Runner) Info() agent.Info {
	return agent.Info{Name: r.opts.Model, AgentType: r.opts.AgentType}
}

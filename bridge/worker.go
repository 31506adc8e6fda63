package bridge

import (
	"context"
	"time"

	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
)

// runWorker executes the blocking agent call and feeds the event queue. It
// runs on its own goroutine and always finishes by pushing exactly one
// terminal event.
//
// The invocation context is detached from the stream context: cancelling a
// stream abandons the call rather than interrupting it, and once the driver
// has closed the queue every remaining push becomes a drop.
func (b *Bridge) runWorker(ctx context.Context, runner agent.Runner, prompt string, q *eventQueue) {
	defer b.pool.release()

	info := runner.Info()
	start := time.Now()

	res, err := runner.Invoke(context.WithoutCancel(ctx), prompt, func(p agent.Partial) {
		switch {
		case p.ToolName != "":
			q.Push(core.ToolStartEvent(p.ToolName))
		case p.Text != "":
			q.Push(core.TokenEvent(p.Text))
		}
	})
	if err != nil {
		b.logger.Error("agent invocation failed",
			"agent", info.Name, "duration", time.Since(start), "error", err)
		q.Push(core.ErrorEvent(err.Error()))
		return
	}

	b.logger.Debug("agent invocation completed",
		"agent", info.Name, "duration", time.Since(start),
		"stop_reason", res.StopReason, "output_chars", len(res.Text))
	q.Push(core.DoneEvent())
}

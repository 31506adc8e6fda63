package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
	"github.com/craftlane/chatbridge/logging"
)

// Config defines tuning parameters for stream driving behavior.
//
// The defaults balance perceived latency against chunk overhead: short poll
// and batch windows keep first-token latency low while still coalescing
// rapid-fire fragments into fewer wire chunks.
type Config struct {
	// QueuePollTimeout bounds how long the driver waits on the event queue
	// before checking batch age and cancellation.
	QueuePollTimeout time.Duration

	// IdleSleep is the pause inserted when a poll times out with nothing
	// pending, keeping the idle loop off the CPU.
	IdleSleep time.Duration

	// BatchWindow is the maximum time a token fragment waits in the batcher
	// before being flushed regardless of batch size.
	BatchWindow time.Duration

	// MaxBatchSize is the number of token fragments that forces a flush.
	MaxBatchSize int

	// MinEmitInterval is the minimum spacing between emitted chunks. Values
	// below the floor are raised to it.
	MinEmitInterval time.Duration

	// EventBufferSize sets the queue and chunk channel capacities.
	EventBufferSize int

	// MaxConcurrent limits invocation workers across all streams, abandoned
	// workers included. Set to 0 for unlimited (not recommended).
	MaxConcurrent int
}

// minEmitFloor is the lowest allowed chunk spacing. Emitting faster than
// this overwhelms downstream writers without improving perceived latency.
const minEmitFloor = 5 * time.Millisecond

// DefaultConfig provides production-ready defaults.
var DefaultConfig = Config{
	QueuePollTimeout: 20 * time.Millisecond,
	IdleSleep:        5 * time.Millisecond,
	BatchWindow:      10 * time.Millisecond,
	MaxBatchSize:     5,
	MinEmitInterval:  minEmitFloor,
	EventBufferSize:  256,
	MaxConcurrent:    10,
}

func (c Config) normalized() Config {
	d := DefaultConfig
	if c.QueuePollTimeout <= 0 {
		c.QueuePollTimeout = d.QueuePollTimeout
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = d.IdleSleep
	}
	if c.BatchWindow <= 0 {
		c.BatchWindow = d.BatchWindow
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = d.MaxBatchSize
	}
	if c.MinEmitInterval < minEmitFloor {
		c.MinEmitInterval = minEmitFloor
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = d.EventBufferSize
	}
	return c
}

// Options configures a Bridge using the functional options pattern.
type Options struct {
	// Config contains stream driving parameters. Defaults to DefaultConfig.
	Config Config

	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// WithConfig overrides the stream driving parameters.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Bridge turns blocking agent invocations into ordered chunk streams. It is
// safe for concurrent use; each Stream call gets its own queue, worker, and
// driver, sharing only the worker pool.
type Bridge struct {
	config Config
	logger logging.Logger
	pool   *workerPool
}

// New creates a Bridge with the supplied options.
func New(optFns ...func(o *Options)) *Bridge {
	opts := Options{Config: DefaultConfig, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	cfg := opts.Config.normalized()
	return &Bridge{
		config: cfg,
		logger: opts.Logger,
		pool:   newWorkerPool(cfg.MaxConcurrent),
	}
}

// InFlight reports how many invocation workers are currently running, or -1
// when the pool is unlimited.
func (b *Bridge) InFlight() int {
	return b.pool.inFlight()
}

// Stream starts an agent invocation and returns its chunk stream.
//
// Token and tool_start chunks arrive on the chunk channel in production
// order; the channel is closed once the invocation ends or the context is
// cancelled. A failed invocation is reported on the error channel after any
// already-produced tokens have been flushed. Callers own terminal signaling
// past this point: the bridge itself never emits complete or error chunks.
//
// Cancelling ctx abandons the stream. The driver stops promptly, but the
// underlying agent call keeps running until it returns on its own, holding
// its worker slot for the duration.
func (b *Bridge) Stream(ctx context.Context, runner agent.Runner, prompt string) (<-chan core.StreamChunk, <-chan error, error) {
	if runner == nil {
		return nil, nil, errors.New("runner must not be nil")
	}
	if err := b.pool.acquire(ctx); err != nil {
		return nil, nil, fmt.Errorf("start invocation: %w", err)
	}

	q := newEventQueue(b.config.EventBufferSize)
	chunks := make(chan core.StreamChunk, b.config.EventBufferSize)
	errs := make(chan error, 1)

	go b.runWorker(ctx, runner, prompt, q)
	go b.drive(ctx, runner.Info(), q, chunks, errs)

	return chunks, errs, nil
}

// drive is the consumer loop: it polls the event queue, batches tokens,
// deduplicates tool announcements, and forwards chunks until a terminal
// event arrives or the stream is abandoned.
func (b *Bridge) drive(ctx context.Context, info agent.Info, q *eventQueue, chunks chan<- core.StreamChunk, errs chan<- error) {
	defer close(errs)
	defer close(chunks)
	defer q.Close()

	batch := newTokenBatcher(b.config.MaxBatchSize, b.config.BatchWindow)
	seenTools := make(map[string]struct{})
	emitted := 0
	start := time.Now()
	var lastEmit time.Time

	emit := func(c core.StreamChunk) bool {
		if wait := b.config.MinEmitInterval - time.Since(lastEmit); wait > 0 {
			time.Sleep(wait)
		}
		select {
		case chunks <- c:
			lastEmit = time.Now()
			emitted++
			return true
		case <-ctx.Done():
			return false
		}
	}
	// flushBatch must run before any non-token chunk so text never jumps
	// across a tool boundary.
	flushBatch := func() bool {
		text, ok := batch.flush()
		if !ok {
			return true
		}
		return emit(core.TokenChunk(text, info.AgentType))
	}

	finished := false
	for !finished || q.Len() > 0 {
		if ctx.Err() != nil {
			b.logger.Debug("stream abandoned",
				"agent", info.Name, "chunks", emitted, "duration", time.Since(start))
			return
		}

		ev, ok := q.Poll(b.config.QueuePollTimeout)
		if !ok {
			if batch.aged(time.Now()) {
				if !flushBatch() {
					return
				}
			} else {
				time.Sleep(b.config.IdleSleep)
			}
			continue
		}

		switch ev.Type {
		case core.EventToken:
			batch.add(ev.Text)
			if batch.full() && !flushBatch() {
				return
			}
		case core.EventToolStart:
			if !flushBatch() {
				return
			}
			if _, seen := seenTools[ev.ToolName]; seen {
				continue
			}
			seenTools[ev.ToolName] = struct{}{}
			if !emit(core.ToolStartChunk(ev.ToolName, info.AgentType)) {
				return
			}
		case core.EventError:
			if !flushBatch() {
				return
			}
			errs <- errors.New(ev.Message)
			finished = true
		case core.EventDone:
			if !flushBatch() {
				return
			}
			finished = true
		}
	}

	b.logger.Debug("stream completed",
		"agent", info.Name, "chunks", emitted, "duration", time.Since(start))
}

package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/scheduler"
)

const DefaultMaxPoll = time.Second

// Executor runs one command to completion. The engine loop is the only
// caller, so implementations may mutate world state freely.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// Flusher is the save-on-shutdown hook. Registered flushers run on the loop
// goroutine after the final unit of work, before Start returns.
type Flusher interface {
	FlushShutdown(ctx context.Context) error
}

// Loop is the single logical worker that owns all world mutation. Each
// iteration executes exactly one unit of work: one command, or one due
// scheduler callback, commands first when both are ready. Handlers express
// follow-up work as new commands or new scheduled callbacks, never as nested
// calls back into the loop.
type Loop struct {
	queue    *Queue
	sched    *scheduler.Scheduler
	exec     Executor
	events   *dispatch.Dispatcher
	maxPoll  time.Duration
	clock    func() time.Time
	flushers []Flusher
}

type LoopOpt func(*Loop)

// WithMaxPoll caps how long the loop sleeps when idle.
func WithMaxPoll(d time.Duration) LoopOpt {
	return func(l *Loop) {
		l.maxPoll = d
	}
}

// WithClock replaces the time source, used by tests.
func WithClock(clock func() time.Time) LoopOpt {
	return func(l *Loop) {
		l.clock = clock
	}
}

// WithFlusher registers a shutdown flusher.
func WithFlusher(f Flusher) LoopOpt {
	return func(l *Loop) {
		l.flushers = append(l.flushers, f)
	}
}

func NewLoop(q *Queue, s *scheduler.Scheduler, exec Executor, events *dispatch.Dispatcher, opts ...LoopOpt) *Loop {
	l := &Loop{
		queue:   q,
		sched:   s,
		exec:    exec,
		events:  events,
		maxPoll: DefaultMaxPoll,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start runs the loop until ctx is cancelled. On cancellation it finishes the
// in-flight unit of work, executes any commands still queued, runs the
// shutdown flushers, and returns.
func (l *Loop) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "engine loop starting")

	for {
		// Shutdown is checked once per iteration, between units of work.
		if ctx.Err() != nil {
			return l.drain(ctx)
		}

		if l.Step(ctx) {
			continue
		}

		// Nothing ready: sleep until the next timer is due, a command
		// arrives, or the poll cap elapses. A schedule() call can only
		// happen inside a unit of work, so the deadline computed here
		// cannot be stale.
		wait := l.maxPoll
		if d, ok := l.sched.TimeUntilNext(l.clock()); ok && d < wait {
			wait = d
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return l.drain(ctx)
		case <-l.queue.Wake():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Step executes at most one unit of work and flushes the outbound batch it
// produced. It reports whether any work was done.
func (l *Loop) Step(ctx context.Context) bool {
	if cmd, ok := l.queue.Pop(); ok {
		l.runCommand(ctx, cmd)
		l.events.Flush()
		return true
	}

	if act := l.sched.PopReady(l.clock()); act != nil {
		l.runAction(ctx, act)
		l.events.Flush()
		return true
	}

	return false
}

func (l *Loop) runCommand(ctx context.Context, cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "command handler panicked",
				"source", cmd.SourceID, "seq", cmd.Seq, "panic", r)
		}
	}()

	if err := l.exec.Execute(ctx, cmd); err != nil {
		slog.ErrorContext(ctx, "command handler failed",
			"source", cmd.SourceID, "seq", cmd.Seq, "error", err)
	}
}

func (l *Loop) runAction(ctx context.Context, act scheduler.Action) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "timer callback panicked", "panic", r)
		}
	}()

	act(ctx)
}

func (l *Loop) drain(ctx context.Context) error {
	slog.InfoContext(ctx, "engine loop draining")

	// The parent context is already cancelled; the remaining work needs a
	// live one.
	dctx := context.WithoutCancel(ctx)

	// Sessions push a final quit when the server goes down. Run whatever the
	// queue still holds so those land before the flush.
	for {
		cmd, ok := l.queue.Pop()
		if !ok {
			break
		}
		l.runCommand(dctx, cmd)
		l.events.Flush()
	}

	for _, f := range l.flushers {
		if err := f.FlushShutdown(dctx); err != nil {
			slog.ErrorContext(ctx, "shutdown flush failed", "error", err)
		}
	}
	return nil
}

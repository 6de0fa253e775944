package engine

import (
	"sync"
)

// Command is one decoded participant instruction. It is created by the
// transport layer, consumed exactly once by the engine loop, and never
// mutated.
type Command struct {
	// SourceID identifies the issuing participant.
	SourceID string

	// Text is the raw instruction line.
	Text string

	// Seq is assigned at enqueue time and increases monotonically across all
	// producers, giving a deterministic total order for tie-breaking.
	Seq uint64
}

// Queue is the multi-producer/single-consumer channel of inbound commands.
// Any goroutine may Push; only the engine loop may Pop. Arrival order is
// preserved.
type Queue struct {
	mu      sync.Mutex
	pending []Command
	nextSeq uint64

	// wake carries at most one pending signal; Push never blocks on it.
	wake chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Push enqueues a command and wakes the engine loop if it is sleeping.
// It never blocks.
func (q *Queue) Push(sourceID, text string) {
	q.mu.Lock()
	q.nextSeq++
	q.pending = append(q.pending, Command{
		SourceID: sourceID,
		Text:     text,
		Seq:      q.nextSeq,
	})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest pending command.
func (q *Queue) Pop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Command{}, false
	}
	cmd := q.pending[0]
	q.pending = q.pending[1:]
	return cmd, true
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Wake returns the channel signalled on Push, for the engine loop's sleep
// select.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

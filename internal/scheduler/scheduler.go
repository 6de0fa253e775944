package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"time"
)

// ID is a handle for a scheduled callback, unique for the process lifetime.
type ID uint64

// Action is a unit of work run on the engine loop when its time arrives.
type Action func(ctx context.Context)

// entry is a single scheduled callback on the heap.
type entry struct {
	id        ID
	executeAt time.Time
	seq       uint64 // insertion order, breaks ties between equal timestamps
	action    Action
	recurring bool
	interval  time.Duration
	cancelled bool
	index     int
}

// Scheduler is a min-heap of timed callbacks ordered by execution time.
// It is not safe for concurrent use: only the engine loop may touch it.
// Cancellation is lazy; a cancelled entry stays on the heap until popped.
type Scheduler struct {
	entries timerHeap
	byID    map[ID]*entry
	nextID  ID
	nextSeq uint64
	clock   func() time.Time
}

type Opt func(*Scheduler)

// WithClock replaces the time source, used by tests to drive a fake clock.
func WithClock(clock func() time.Time) Opt {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func New(opts ...Opt) *Scheduler {
	s := &Scheduler{
		byID:  make(map[ID]*entry),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule enqueues a one-shot callback to run after delay.
func (s *Scheduler) Schedule(delay time.Duration, action Action) (ID, error) {
	return s.schedule(delay, 0, false, action)
}

// ScheduleEvery enqueues a recurring callback. The first firing happens after
// delay; each successor fires at the previous target time plus interval, not
// at the previous fire time plus interval, so a slow handler never shifts the
// schedule.
func (s *Scheduler) ScheduleEvery(delay, interval time.Duration, action Action) (ID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %v", interval)
	}
	return s.schedule(delay, interval, true, action)
}

func (s *Scheduler) schedule(delay, interval time.Duration, recurring bool, action Action) (ID, error) {
	if delay < 0 {
		return 0, fmt.Errorf("delay must not be negative, got %v", delay)
	}
	if action == nil {
		return 0, fmt.Errorf("action must not be nil")
	}

	s.nextID++
	s.nextSeq++
	e := &entry{
		id:        s.nextID,
		executeAt: s.clock().Add(delay),
		seq:       s.nextSeq,
		action:    action,
		recurring: recurring,
		interval:  interval,
	}
	heap.Push(&s.entries, e)
	s.byID[e.id] = e
	return e.id, nil
}

// Cancel marks a callback so it never runs. It is idempotent and a no-op for
// ids that already fired or were never issued.
func (s *Scheduler) Cancel(id ID) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	e.cancelled = true
	delete(s.byID, id)
}

// PopReady returns the next due callback, or nil if the earliest entry is
// still in the future. Cancelled entries encountered along the way are
// discarded. A recurring callback's successor is enqueued before the current
// action is returned, so the action itself may cancel the recurrence.
func (s *Scheduler) PopReady(now time.Time) Action {
	for s.entries.Len() > 0 {
		head := s.entries[0]
		if head.cancelled {
			heap.Pop(&s.entries)
			continue
		}
		if head.executeAt.After(now) {
			return nil
		}

		heap.Pop(&s.entries)
		delete(s.byID, head.id)

		if head.recurring {
			// The successor keeps the series' original sequence number so a
			// recurring series holds its insertion-order position against
			// other timers landing on the same instant.
			next := &entry{
				id:        head.id,
				executeAt: head.executeAt.Add(head.interval),
				seq:       head.seq,
				action:    head.action,
				recurring: true,
				interval:  head.interval,
			}
			heap.Push(&s.entries, next)
			s.byID[next.id] = next
		}

		return head.action
	}
	return nil
}

// TimeUntilNext reports how long until the earliest pending callback is due.
// The second return is false when nothing is scheduled.
func (s *Scheduler) TimeUntilNext(now time.Time) (time.Duration, bool) {
	for s.entries.Len() > 0 {
		head := s.entries[0]
		if head.cancelled {
			heap.Pop(&s.entries)
			continue
		}
		d := head.executeAt.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// Len returns the number of outstanding entries, cancelled ones included.
func (s *Scheduler) Len() int {
	return s.entries.Len()
}

type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].executeAt.Equal(h[j].executeAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].executeAt.Before(h[j].executeAt)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

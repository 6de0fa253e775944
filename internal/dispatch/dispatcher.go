package dispatch

import (
	"sync"
)

// Scope selects which participants receive an event.
type Scope int

const (
	// ScopeParticipant delivers to a single participant.
	ScopeParticipant Scope = iota
	// ScopeRoom delivers to every participant in a room.
	ScopeRoom
	// ScopeBroadcast delivers to every connected participant.
	ScopeBroadcast
)

// Event is one outbound notification produced during a unit of work.
type Event struct {
	Scope    Scope
	TargetID string   // participant scope
	RoomID   string   // room scope
	Exclude  []string // participant ids to skip for room/broadcast scope
	Kind     string
	Text     string
}

// Resolver expands room and broadcast scopes into participant ids against
// current world state. Called only during Flush, on the engine loop.
type Resolver interface {
	RoomParticipants(roomID string) []string
	AllParticipants() []string
}

type delivery struct {
	events []Event
	wake   chan struct{}
}

// Dispatcher fans out events produced by command and timer handling into
// per-participant delivery queues. Publish and Flush are engine-loop only;
// Register, Unregister, and Drain are safe from transport goroutines.
//
// Events published during one unit of work reach each target in publish
// order, and Flush boundaries never reorder events for a single target.
type Dispatcher struct {
	resolver Resolver

	// staged accumulates the current unit of work's batch. Only the engine
	// loop touches it, so it needs no lock.
	staged []Event

	mu     sync.Mutex
	queues map[string]*delivery
}

func NewDispatcher(resolver Resolver) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		queues:   make(map[string]*delivery),
	}
}

// Publish stages an event for delivery at the end of the current unit of
// work.
func (d *Dispatcher) Publish(ev Event) {
	d.staged = append(d.staged, ev)
}

// Flush resolves scopes and moves the staged batch into the per-target
// queues, then wakes any waiting writers.
func (d *Dispatcher) Flush() {
	if len(d.staged) == 0 {
		return
	}
	batch := d.staged
	d.staged = nil

	d.mu.Lock()
	woken := make(map[string]*delivery)
	for _, ev := range batch {
		for _, id := range d.targets(ev) {
			q, ok := d.queues[id]
			if !ok {
				// Target disconnected between publish and flush.
				continue
			}
			q.events = append(q.events, ev)
			woken[id] = q
		}
	}
	d.mu.Unlock()

	for _, q := range woken {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
}

func (d *Dispatcher) targets(ev Event) []string {
	switch ev.Scope {
	case ScopeParticipant:
		return []string{ev.TargetID}
	case ScopeRoom:
		return exclude(d.resolver.RoomParticipants(ev.RoomID), ev.Exclude)
	case ScopeBroadcast:
		return exclude(d.resolver.AllParticipants(), ev.Exclude)
	}
	return nil
}

func exclude(ids, skip []string) []string {
	if len(skip) == 0 {
		return ids
	}
	out := ids[:0:0]
	for _, id := range ids {
		skipped := false
		for _, s := range skip {
			if id == s {
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, id)
		}
	}
	return out
}

// Register creates the delivery queue for a participant and returns its wake
// channel. Must be called before the participant's first command is enqueued
// so no events are dropped.
func (d *Dispatcher) Register(targetID string) <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[targetID]
	if !ok {
		q = &delivery{wake: make(chan struct{}, 1)}
		d.queues[targetID] = q
	}
	return q.wake
}

// Unregister drops a participant's queue and any undelivered events.
func (d *Dispatcher) Unregister(targetID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.queues, targetID)
}

// Drain returns and clears the pending events for one participant, in
// delivery order. Called by transport writers.
func (d *Dispatcher) Drain(targetID string) []Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[targetID]
	if !ok || len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

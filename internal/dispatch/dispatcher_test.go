package dispatch

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

type stubResolver struct {
	rooms map[string][]string
	all   []string
}

func (r *stubResolver) RoomParticipants(roomID string) []string {
	return r.rooms[roomID]
}

func (r *stubResolver) AllParticipants() []string {
	return r.all
}

func texts(events []Event) string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Text)
	}
	return strings.Join(out, ",")
}

func TestParticipantDeliveryKeepsPublishOrder(t *testing.T) {
	d := NewDispatcher(&stubResolver{})
	d.Register("alice")

	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "one"})
	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "two"})
	d.Flush()
	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "three"})
	d.Flush()

	testutil.AssertEqual(t, "order", texts(d.Drain("alice")), "one,two,three")
	testutil.AssertEqual(t, "drained", len(d.Drain("alice")), 0)
}

func TestRoomScopeResolvesAtFlushTime(t *testing.T) {
	resolver := &stubResolver{rooms: map[string][]string{"arena": {"alice", "bob"}}}
	d := NewDispatcher(resolver)
	d.Register("alice")
	d.Register("bob")

	d.Publish(Event{Scope: ScopeRoom, RoomID: "arena", Text: "before"})

	// Bob enters the room after publish but before flush; resolution happens
	// at flush, so he still receives the event.
	resolver.rooms["arena"] = []string{"alice", "bob", "carol"}
	d.Flush()

	testutil.AssertEqual(t, "alice got it", texts(d.Drain("alice")), "before")
	testutil.AssertEqual(t, "bob got it", texts(d.Drain("bob")), "before")
}

func TestRoomScopeHonorsExclusions(t *testing.T) {
	resolver := &stubResolver{rooms: map[string][]string{"arena": {"alice", "bob", "carol"}}}
	d := NewDispatcher(resolver)
	d.Register("alice")
	d.Register("bob")
	d.Register("carol")

	d.Publish(Event{Scope: ScopeRoom, RoomID: "arena", Exclude: []string{"alice", "carol"}, Text: "hi"})
	d.Flush()

	testutil.AssertEqual(t, "alice excluded", len(d.Drain("alice")), 0)
	testutil.AssertEqual(t, "bob included", texts(d.Drain("bob")), "hi")
	testutil.AssertEqual(t, "carol excluded", len(d.Drain("carol")), 0)
}

func TestBroadcastScope(t *testing.T) {
	d := NewDispatcher(&stubResolver{all: []string{"alice", "bob"}})
	d.Register("alice")
	d.Register("bob")

	d.Publish(Event{Scope: ScopeBroadcast, Exclude: []string{"alice"}, Text: "announcement"})
	d.Flush()

	testutil.AssertEqual(t, "alice excluded", len(d.Drain("alice")), 0)
	testutil.AssertEqual(t, "bob included", texts(d.Drain("bob")), "announcement")
}

func TestUnregisteredTargetIsDropped(t *testing.T) {
	d := NewDispatcher(&stubResolver{})

	d.Publish(Event{Scope: ScopeParticipant, TargetID: "ghost", Text: "anyone?"})
	d.Flush()

	d.Register("ghost")
	testutil.AssertEqual(t, "nothing queued", len(d.Drain("ghost")), 0)
}

func TestUnregisterDropsPendingEvents(t *testing.T) {
	d := NewDispatcher(&stubResolver{})
	d.Register("alice")

	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "one"})
	d.Flush()
	d.Unregister("alice")
	d.Register("alice")

	testutil.AssertEqual(t, "queue cleared", len(d.Drain("alice")), 0)
}

func TestFlushWakesWriterOnce(t *testing.T) {
	d := NewDispatcher(&stubResolver{})
	wake := d.Register("alice")

	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "one"})
	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "two"})
	d.Flush()

	select {
	case <-wake:
	default:
		t.Fatal("wake not signalled")
	}
	select {
	case <-wake:
		t.Fatal("wake signalled twice for one flush")
	default:
	}

	testutil.AssertEqual(t, "both delivered", len(d.Drain("alice")), 2)
}

func TestRegisterIsIdempotent(t *testing.T) {
	d := NewDispatcher(&stubResolver{})
	first := d.Register("alice")

	d.Publish(Event{Scope: ScopeParticipant, TargetID: "alice", Text: "one"})
	d.Flush()

	second := d.Register("alice")
	testutil.AssertEqual(t, "same queue kept", len(d.Drain("alice")), 1)
	testutil.AssertEqual(t, "same wake channel", first == second, true)
}

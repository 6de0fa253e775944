package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-realm/internal/combat"
	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/engine"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/scheduler"
	"github.com/pixil98/go-realm/internal/storage"
)

type memStore[T storage.ValidatingSpec] struct {
	records map[string]T
}

func newMemStore[T storage.ValidatingSpec](records map[string]T) *memStore[T] {
	if records == nil {
		records = make(map[string]T)
	}
	return &memStore[T]{records: records}
}

func (s *memStore[T]) Save(id string, val T) error {
	s.records[id] = val
	return nil
}

func (s *memStore[T]) Get(id string) T { return s.records[id] }

func (s *memStore[T]) GetAll() map[string]T { return s.records }

type stubChat struct {
	published []string
}

func (c *stubChat) PublishChat(channel, from, text string) error {
	c.published = append(c.published, channel+"|"+from+"|"+text)
	return nil
}

type fixture struct {
	now      time.Time
	sched    *scheduler.Scheduler
	world    *game.World
	events   *dispatch.Dispatcher
	tracker  *combat.Tracker
	chars    *memStore[*game.Character]
	chat     *stubChat
	registry *Registry

	seq uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	rooms := newMemStore(map[string]*game.Room{
		"arena": {Name: "Arena", Description: "Sand and blood.", Exits: map[string]string{"north": "home"}, Spawns: []string{"rat"}},
		"home":  {Name: "Home", Description: "Safe and quiet.", Exits: map[string]string{"south": "arena"}},
	})
	mobiles := newMemStore(map[string]*game.Mobile{
		"rat": {Name: "a giant rat", MaxHP: 10},
	})
	weapons := newMemStore(map[string]*game.Weapon{
		"short-sword": {Name: "short sword", DamageMin: 5, DamageMax: 5, SwingInterval: "2s", DamageType: "slash"},
		"battle-axe":  {Name: "battle axe", DamageMin: 8, DamageMax: 8, SwingInterval: "4s", DamageType: "slash"},
	})
	f.chars = newMemStore[*game.Character](nil)

	world, err := game.NewWorld(rooms, mobiles, weapons)
	if err != nil {
		t.Fatalf("building world: %v", err)
	}
	f.world = world

	f.sched = scheduler.New(scheduler.WithClock(func() time.Time { return f.now }))
	f.events = dispatch.NewDispatcher(world)
	f.tracker = combat.NewTracker(f.sched, world, f.events,
		combat.WithClock(func() time.Time { return f.now }),
		combat.WithRolls(func(min, max int) int { return max }, func() bool { return false }),
		combat.WithDeathHandler(combat.NewDeaths(world, f.sched, f.events)),
	)
	f.chat = &stubChat{}

	f.registry = NewRegistry(Deps{
		World:     world,
		Combat:    f.tracker,
		Sched:     f.sched,
		Events:    f.events,
		Chat:      f.chat,
		Weapons:   weapons,
		Chars:     f.chars,
		Saver:     game.NewCharacterSaver(world, f.chars),
		StartRoom: "arena",
	})

	return f
}

// run executes one command the way the engine loop would: execute, then
// flush.
func (f *fixture) run(t *testing.T, sourceID, text string) {
	t.Helper()
	f.seq++
	if err := f.registry.Execute(context.Background(), engine.Command{SourceID: sourceID, Text: text, Seq: f.seq}); err != nil {
		t.Fatalf("executing %q: %v", text, err)
	}
	f.events.Flush()
}

// advance moves the fake clock and runs due scheduler callbacks.
func (f *fixture) advance(ctx context.Context, d time.Duration) {
	deadline := f.now.Add(d)
	for {
		wait, ok := f.sched.TimeUntilNext(f.now)
		if !ok || f.now.Add(wait).After(deadline) {
			break
		}
		f.now = f.now.Add(wait)
		for {
			action := f.sched.PopReady(f.now)
			if action == nil {
				break
			}
			action(ctx)
			f.events.Flush()
		}
	}
	f.now = deadline
}

func (f *fixture) login(t *testing.T, id, name string) *game.Entity {
	t.Helper()
	f.events.Register(id)
	f.run(t, id, "login "+name)
	e := f.world.Entity(id)
	if e == nil {
		t.Fatalf("login did not create entity %q", id)
	}
	f.events.Drain(id)
	return e
}

func texts(events []dispatch.Event) string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Text)
	}
	return strings.Join(out, "\n")
}

func TestStaleSourceIsSilentlyDropped(t *testing.T) {
	f := newFixture(t)
	f.events.Register("ghost")

	f.run(t, "ghost", "look")

	testutil.AssertEqual(t, "no events", len(f.events.Drain("ghost")), 0)
}

func TestUnknownCommandRejected(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")

	f.run(t, "alice", "dance")

	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "one event", len(got), 1)
	testutil.AssertEqual(t, "kind", got[0].Kind, "error")
	testutil.AssertEqual(t, "text", got[0].Text, "Huh?")
}

func TestLoginCreatesNewCharacterWithChosenWeapon(t *testing.T) {
	f := newFixture(t)
	f.events.Register("alice")

	f.run(t, "alice", "login Alice short-sword")

	e := f.world.Entity("alice")
	if e == nil {
		t.Fatal("entity not created")
	}
	testutil.AssertEqual(t, "name", e.Name, "Alice")
	testutil.AssertEqual(t, "room", string(e.RoomID), "arena")
	testutil.AssertEqual(t, "weapon", e.Weapon().Name, "short sword")

	got := f.events.Drain("alice")
	if len(got) < 2 {
		t.Fatalf("expected welcome and room events, got %v", texts(got))
	}
	testutil.AssertEqual(t, "welcome first", got[0].Text, "Welcome, Alice.")
	testutil.AssertEqual(t, "room second", strings.HasPrefix(got[1].Text, "Arena"), true)
}

func TestLoginRestoresSavedCharacter(t *testing.T) {
	f := newFixture(t)
	f.chars.records["alice"] = &game.Character{
		Name:      "Alice",
		LastRoom:  "home",
		CurrentHP: 7,
		MaxHP:     25,
		WieldedID: "battle-axe",
	}
	e := f.login(t, "alice", "Alice")

	testutil.AssertEqual(t, "room restored", string(e.RoomID), "home")
	testutil.AssertEqual(t, "hp restored", e.CurrentHP, 7)
	testutil.AssertEqual(t, "max hp restored", e.MaxHP, 25)
	testutil.AssertEqual(t, "weapon restored", e.Weapon().Name, "battle axe")
}

func TestMoveBetweenRooms(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice", "Alice")
	f.login(t, "bob", "Bob")
	f.events.Drain("alice")

	f.run(t, "alice", "north")

	testutil.AssertEqual(t, "alice moved", string(alice.RoomID), "home")

	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "one event", len(got), 1)
	testutil.AssertEqual(t, "room shown", strings.HasPrefix(got[0].Text, "Home"), true)

	testutil.AssertEqual(t, "bob saw departure", texts(f.events.Drain("bob")), "Alice leaves north.")

	f.run(t, "alice", "west")
	errGot := f.events.Drain("alice")
	testutil.AssertEqual(t, "bad direction", errGot[0].Kind, "error")
	testutil.AssertEqual(t, "bad direction text", errGot[0].Text, "You can't go that way.")
}

func TestEventsArriveInPublishOrderAcrossCommands(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")
	f.login(t, "bob", "Bob")
	f.events.Drain("alice")

	f.run(t, "alice", "say hello")
	f.run(t, "alice", "say goodbye")

	testutil.AssertEqual(t, "publish order held", texts(f.events.Drain("bob")),
		"Alice says, 'hello'\nAlice says, 'goodbye'")
	testutil.AssertEqual(t, "speaker confirmations", texts(f.events.Drain("alice")),
		"You say, 'hello'\nYou say, 'goodbye'")
}

func TestGossipRidesChatBus(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")

	f.run(t, "alice", "gossip anyone around?")

	testutil.AssertEqual(t, "published", strings.Join(f.chat.published, ";"), "gossip|Alice|anyone around?")
	testutil.AssertEqual(t, "no dispatcher events", len(f.events.Drain("alice")), 0)
}

func TestKillValidatesTarget(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")

	f.run(t, "alice", "kill")
	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "kill nothing", got[0].Text, "Kill whom?")

	f.run(t, "alice", "kill dragon")
	got = f.events.Drain("alice")
	testutil.AssertEqual(t, "kill absent", got[0].Text, "They aren't here.")

	f.run(t, "alice", "kill rat")
	testutil.AssertEqual(t, "alice fighting", f.tracker.InCombat("alice"), true)
	got = f.events.Drain("alice")
	testutil.AssertEqual(t, "attack message", got[0].Text, "You attack a giant rat!")
}

func TestMoveBlockedWhileFighting(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")
	f.run(t, "alice", "kill rat")
	f.events.Drain("alice")

	f.run(t, "alice", "north")

	testutil.AssertEqual(t, "still in arena", string(f.world.Entity("alice").RoomID), "arena")
	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "rejected", got[0].Kind, "error")
}

func TestFleeBreaksCombatAndMoves(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")
	f.run(t, "alice", "kill rat")
	f.events.Drain("alice")

	f.run(t, "alice", "flee")

	testutil.AssertEqual(t, "combat over", f.tracker.InCombat("alice"), false)
	// Arena's only exit is north.
	testutil.AssertEqual(t, "fled home", string(f.world.Entity("alice").RoomID), "home")
}

func TestWieldSwapsWeapon(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice", "Alice")

	f.run(t, "alice", "wield battle")
	testutil.AssertEqual(t, "wielded by name", alice.Weapon().Name, "battle axe")
	testutil.AssertEqual(t, "wielded id", string(alice.WieldedID), "battle-axe")
	f.events.Drain("alice")

	f.run(t, "alice", "wield battle-axe")
	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "already wielding", got[0].Kind, "error")
}

func TestBuffAppliesAndExpiresNetZero(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice", "Alice")
	base := alice.Stat(game.StatSTR)

	f.run(t, "alice", "buff str")
	testutil.AssertEqual(t, "str raised", alice.Stat(game.StatSTR), base+buffDelta)
	f.events.Drain("alice")

	f.run(t, "alice", "buff str")
	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "double buff rejected", got[0].Kind, "error")

	f.advance(context.Background(), defaultBuffDuration+time.Second)
	testutil.AssertEqual(t, "str restored", alice.Stat(game.StatSTR), base)
	testutil.AssertEqual(t, "effect gone", len(alice.Effects), 0)

	got = f.events.Drain("alice")
	testutil.AssertEqual(t, "fade notice", got[len(got)-1].Text, "The surge of strength fades.")
}

func TestBuffPermSurvivesCancelledExpiry(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice", "Alice")
	base := alice.Stat(game.StatSTR)

	f.run(t, "alice", "buff str")
	f.run(t, "alice", "buff str perm")
	f.events.Drain("alice")

	f.advance(context.Background(), 2*defaultBuffDuration)
	testutil.AssertEqual(t, "str still raised", alice.Stat(game.StatSTR), base+buffDelta)
	testutil.AssertEqual(t, "effect still active", len(alice.Effects), 1)
	testutil.AssertEqual(t, "expiry never fired", len(f.events.Drain("alice")), 0)
}

func TestBuffPermAppliesWithoutExpiry(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice", "Alice")
	base := alice.Stat(game.StatDEX)

	f.run(t, "alice", "buff dex perm")
	f.events.Drain("alice")

	f.advance(context.Background(), 2*defaultBuffDuration)
	testutil.AssertEqual(t, "dex still raised", alice.Stat(game.StatDEX), base+buffDelta)
	testutil.AssertEqual(t, "effect still active", len(alice.Effects), 1)
	testutil.AssertEqual(t, "no expiry scheduled", len(f.events.Drain("alice")), 0)
}

func TestBuffExplicitDuration(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice", "Alice")
	base := alice.Stat(game.StatCON)

	f.run(t, "alice", "buff con 5s")
	testutil.AssertEqual(t, "con raised", alice.Stat(game.StatCON), base+buffDelta)
	f.events.Drain("alice")

	f.advance(context.Background(), 4*time.Second)
	testutil.AssertEqual(t, "still active", alice.Stat(game.StatCON), base+buffDelta)

	f.advance(context.Background(), 2*time.Second)
	testutil.AssertEqual(t, "con restored", alice.Stat(game.StatCON), base)

	f.run(t, "alice", "buff con soon")
	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "bad duration rejected", got[len(got)-1].Kind, "error")
	testutil.AssertEqual(t, "no effect applied", len(alice.Effects), 0)
}

func TestScoreRendersSheet(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")
	f.run(t, "alice", "buff dex")
	f.events.Drain("alice")

	f.run(t, "alice", "score")

	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "one event", len(got), 1)
	testutil.AssertEqual(t, "name shown", strings.Contains(got[0].Text, "ALICE"), true)
	testutil.AssertEqual(t, "hp shown", strings.Contains(got[0].Text, "20/20"), true)
	testutil.AssertEqual(t, "effect shown", strings.Contains(got[0].Text, "surge of agility"), true)
}

func TestWhoListsPlayers(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")
	f.login(t, "bob", "Bob")
	f.events.Drain("bob")

	f.run(t, "bob", "who")

	got := f.events.Drain("bob")
	testutil.AssertEqual(t, "one event", len(got), 1)
	testutil.AssertEqual(t, "count", strings.Contains(got[0].Text, "Players online (2)"), true)
	testutil.AssertEqual(t, "alice listed", strings.Contains(got[0].Text, "Alice - Arena"), true)
}

func TestQuitSavesAndDisconnects(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", "Alice")
	f.run(t, "alice", "wield battle-axe")
	f.events.Drain("alice")

	f.run(t, "alice", "quit")

	testutil.AssertEqual(t, "entity removed", f.world.Entity("alice") == nil, true)

	saved := f.chars.records["alice"]
	if saved == nil {
		t.Fatal("character not saved")
	}
	testutil.AssertEqual(t, "weapon saved", string(saved.WieldedID), "battle-axe")
	testutil.AssertEqual(t, "room saved", string(saved.LastRoom), "arena")

	got := f.events.Drain("alice")
	testutil.AssertEqual(t, "farewell then disconnect", got[len(got)-1].Kind, "disconnect")
	testutil.AssertEqual(t, "farewell text", got[len(got)-2].Text, "Farewell.")
}

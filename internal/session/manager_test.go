package session

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-realm/internal/combat"
	"github.com/pixil98/go-realm/internal/commands"
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

func TestValidateName(t *testing.T) {
	tests := map[string]struct {
		name string
		ok   bool
	}{
		"simple":      {name: "Alice", ok: true},
		"lowercase":   {name: "bob", ok: true},
		"too short":   {name: "a", ok: false},
		"too long":    {name: "Abcdefghijklmnopq", ok: false},
		"digits":      {name: "Alice7", ok: false},
		"punctuation": {name: "Al-ice", ok: false},
		"spaces":      {name: "Al ice", ok: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ok, _ := validateName(tt.name)
			testutil.AssertEqual(t, "valid", ok, tt.ok)
		})
	}
}

// TestSessionLifecycle runs a full login/quit round trip against a live
// engine loop over an in-memory connection.
func TestSessionLifecycle(t *testing.T) {
	rooms := newMemStore(map[string]*game.Room{
		"square": {Name: "Town Square", Description: "Cobblestones."},
	})
	mobiles := newMemStore[*game.Mobile](nil)
	weapons := newMemStore(map[string]*game.Weapon{
		"battle-axe":  {Name: "battle axe", DamageMin: 8, DamageMax: 8, SwingInterval: "4s", DamageType: "slash"},
		"short-sword": {Name: "short sword", DamageMin: 5, DamageMax: 5, SwingInterval: "2s", DamageType: "slash"},
	})
	chars := newMemStore[*game.Character](nil)

	world, err := game.NewWorld(rooms, mobiles, weapons)
	if err != nil {
		t.Fatalf("building world: %v", err)
	}

	queue := engine.NewQueue()
	sched := scheduler.New()
	events := dispatch.NewDispatcher(world)
	tracker := combat.NewTracker(sched, world, events)
	saver := game.NewCharacterSaver(world, chars)

	registry := commands.NewRegistry(commands.Deps{
		World:     world,
		Combat:    tracker,
		Sched:     sched,
		Events:    events,
		Weapons:   weapons,
		Chars:     chars,
		Saver:     saver,
		StartRoom: "square",
	})

	loop := engine.NewLoop(queue, sched, registry, events, engine.WithMaxPoll(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Start(ctx)
	}()

	manager := NewManager(queue, events, chars, storage.NewSelectableStorer(weapons), nil)

	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	go io.Copy(io.Discard, client)
	go func() {
		// Name, new-character confirmation, starting weapon (menu is
		// sorted: 1=battle axe, 2=short sword), then quit.
		client.Write([]byte("Alice\n"))
		client.Write([]byte("yes\n"))
		client.Write([]byte("2\n"))
		client.Write([]byte("quit\n"))
	}()

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- manager.RunSession(ctx, server)
	}()

	select {
	case err := <-sessionDone:
		testutil.AssertEqual(t, "clean session exit", err == nil, true)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}

	// Give the loop a beat to process anything still queued, then stop it.
	cancel()
	select {
	case <-loopDone:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	testutil.AssertEqual(t, "entity removed on quit", world.Entity("alice") == nil, true)

	saved := chars.records["alice"]
	if saved == nil {
		t.Fatal("character was not saved")
	}
	testutil.AssertEqual(t, "name saved", saved.Name, "Alice")
	testutil.AssertEqual(t, "weapon saved", string(saved.WieldedID), "short-sword")
	testutil.AssertEqual(t, "room saved", string(saved.LastRoom), "square")
}

func TestNewCharacterDeclined(t *testing.T) {
	chars := newMemStore[*game.Character](nil)
	weapons := newMemStore[*game.Weapon](nil)
	m := NewManager(engine.NewQueue(), dispatch.NewDispatcher(nil), chars, storage.NewSelectableStorer(weapons), nil)

	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	go io.Copy(io.Discard, client)
	go func() {
		client.Write([]byte("Mallory\n"))
		client.Write([]byte("no\n"))
	}()

	done := make(chan error, 1)
	go func() {
		done <- m.RunSession(context.Background(), server)
	}()

	select {
	case err := <-done:
		testutil.AssertEqual(t, "clean exit", err == nil, true)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}

	testutil.AssertEqual(t, "no character created", chars.Get("mallory") == nil, true)
	testutil.AssertEqual(t, "name released", m.reserve("mallory"), true)
}

func TestDuplicateLoginRejected(t *testing.T) {
	m := NewManager(engine.NewQueue(), dispatch.NewDispatcher(nil), newMemStore[*game.Character](nil), nil, nil)

	testutil.AssertEqual(t, "first reserve", m.reserve("alice"), true)
	testutil.AssertEqual(t, "second reserve", m.reserve("alice"), false)
	m.release("alice")
	testutil.AssertEqual(t, "after release", m.reserve("alice"), true)
}

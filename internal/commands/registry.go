package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pixil98/go-realm/internal/combat"
	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/engine"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/scheduler"
	"github.com/pixil98/go-realm/internal/storage"
)

// ChatPublisher fans a chat-channel message out to every connected session.
// Chat rides the message bus rather than the event dispatcher; channel
// delivery has no ordering relationship with world events.
type ChatPublisher interface {
	PublishChat(channel, from, text string) error
}

// Deps is everything command handlers act on. All fields except Chat are
// required.
type Deps struct {
	World   *game.World
	Combat  *combat.Tracker
	Sched   *scheduler.Scheduler
	Events  *dispatch.Dispatcher
	Chat    ChatPublisher
	Weapons storage.Storer[*game.Weapon]
	Chars   storage.Storer[*game.Character]
	Saver   *game.CharacterSaver

	// StartRoom is where characters without a saved location begin.
	StartRoom storage.Identifier
}

// HandlerFunc executes one parsed command for a live actor.
type HandlerFunc func(ctx context.Context, actor *game.Entity, args string) error

// Registry parses and routes player input. It implements engine.Executor and
// runs entirely on the engine loop: handlers may touch the world, the combat
// tracker, and the scheduler freely.
type Registry struct {
	deps     Deps
	handlers map[string]HandlerFunc
	aliases  map[string]string
}

var directions = map[string]struct{}{
	"north": {}, "south": {}, "east": {}, "west": {}, "up": {}, "down": {},
}

func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		deps: deps,
		aliases: map[string]string{
			"n":  "north",
			"s":  "south",
			"e":  "east",
			"w":  "west",
			"u":  "up",
			"d":  "down",
			"l":  "look",
			"k":  "kill",
			"sc": "score",
		},
	}

	r.handlers = map[string]HandlerFunc{
		"look":   r.look,
		"move":   r.move,
		"say":    r.say,
		"gossip": r.gossip,
		"kill":   r.kill,
		"flee":   r.flee,
		"wield":  r.wield,
		"buff":   r.buff,
		"score":  r.score,
		"who":    r.who,
		"quit":   r.quit,
	}

	return r
}

// Execute implements engine.Executor. A command whose source entity no longer
// exists is dropped silently: the player quit or died between enqueue and
// execution, which is routine, not an error. UserErrors become error events
// for the source; anything else propagates for the loop to log.
func (r *Registry) Execute(ctx context.Context, cmd engine.Command) error {
	verb, args := splitCommand(cmd.Text)
	if verb == "" {
		return nil
	}
	if canonical, ok := r.aliases[verb]; ok {
		verb = canonical
	}
	if _, ok := directions[verb]; ok {
		args = verb
		verb = "move"
	}

	var err error
	if verb == "login" {
		err = r.login(ctx, cmd.SourceID, args)
	} else {
		actor := r.deps.World.Entity(cmd.SourceID)
		if actor == nil {
			slog.DebugContext(ctx, "dropping command from stale source", "source", cmd.SourceID, "verb", verb)
			return nil
		}

		h, ok := r.handlers[verb]
		if !ok {
			r.reject(cmd.SourceID, "Huh?")
			return nil
		}
		err = h(ctx, actor, args)
	}

	var uerr *UserError
	if errors.As(err, &uerr) {
		r.reject(cmd.SourceID, uerr.Message)
		return nil
	}
	return err
}

func (r *Registry) reject(targetID, msg string) {
	r.deps.Events.Publish(dispatch.Event{
		Scope:    dispatch.ScopeParticipant,
		TargetID: targetID,
		Kind:     "error",
		Text:     msg,
	})
}

func (r *Registry) send(targetID, kind, text string) {
	r.deps.Events.Publish(dispatch.Event{
		Scope:    dispatch.ScopeParticipant,
		TargetID: targetID,
		Kind:     kind,
		Text:     text,
	})
}

func (r *Registry) sendRoom(roomID storage.Identifier, kind, text string, exclude ...string) {
	r.deps.Events.Publish(dispatch.Event{
		Scope:   dispatch.ScopeRoom,
		RoomID:  string(roomID),
		Exclude: exclude,
		Kind:    kind,
		Text:    text,
	})
}

func splitCommand(text string) (verb, args string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if i := strings.IndexByte(text, ' '); i >= 0 {
		return strings.ToLower(text[:i]), strings.TrimSpace(text[i+1:])
	}
	return strings.ToLower(text), ""
}

// findInRoom resolves a name to another entity in the room, matching
// case-insensitively on name prefix. The actor itself is never matched.
func findInRoom(w *game.World, actor *game.Entity, name string) *game.Entity {
	room := w.Room(actor.RoomID)
	if room == nil || name == "" {
		return nil
	}
	name = strings.ToLower(name)
	for _, id := range room.OccupantIDs() {
		if id == actor.ID {
			continue
		}
		e := w.Entity(id)
		if e == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(e.Name), name) ||
			strings.Contains(strings.ToLower(e.Name), " "+name) {
			return e
		}
	}
	return nil
}

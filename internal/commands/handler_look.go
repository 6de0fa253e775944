package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-realm/internal/game"
)

// look shows the current room, or sizes up a named occupant.
func (r *Registry) look(ctx context.Context, actor *game.Entity, args string) error {
	if args != "" {
		target := findInRoom(r.deps.World, actor, args)
		if target == nil {
			return NewUserError("You don't see that here.")
		}
		r.send(actor.ID, "room", fmt.Sprintf("%s is %s. They are wielding %s.",
			target.Name, condition(target), target.Weapon().Name))
		return nil
	}

	room := r.deps.World.Room(actor.RoomID)
	if room == nil {
		return fmt.Errorf("actor %s is in unknown room %q", actor.ID, actor.RoomID)
	}
	r.send(actor.ID, "room", room.Describe(r.deps.World, actor.ID))
	return nil
}

func condition(e *game.Entity) string {
	if !e.IsAlive() {
		return "dead"
	}
	pct := e.CurrentHP * 100 / e.MaxHP
	switch {
	case pct >= 100:
		return "in perfect health"
	case pct >= 75:
		return "lightly wounded"
	case pct >= 50:
		return "wounded"
	case pct >= 25:
		return "badly wounded"
	default:
		return "near death"
	}
}

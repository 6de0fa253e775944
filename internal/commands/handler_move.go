package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-realm/internal/game"
)

// move walks the actor through an exit. Fighters have to flee instead.
func (r *Registry) move(ctx context.Context, actor *game.Entity, args string) error {
	if args == "" {
		return NewUserError("Go where?")
	}
	if r.deps.Combat.InCombat(actor.ID) {
		return NewUserError("You're in the middle of a fight! Try 'flee'.")
	}

	room := r.deps.World.Room(actor.RoomID)
	if room == nil {
		return fmt.Errorf("actor %s is in unknown room %q", actor.ID, actor.RoomID)
	}
	dest, ok := room.Exit(args)
	if !ok {
		return NewUserError("You can't go that way.")
	}

	r.sendRoom(actor.RoomID, "info", fmt.Sprintf("%s leaves %s.", actor.Name, args), actor.ID)
	if err := r.deps.World.Move(actor.ID, dest); err != nil {
		return fmt.Errorf("moving %s: %w", actor.ID, err)
	}
	r.sendRoom(actor.RoomID, "info", fmt.Sprintf("%s has arrived.", actor.Name), actor.ID)

	if to := r.deps.World.Room(actor.RoomID); to != nil {
		r.send(actor.ID, "room", to.Describe(r.deps.World, actor.ID))
	}
	return nil
}

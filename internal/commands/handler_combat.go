package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/pixil98/go-realm/internal/game"
)

// kill engages a target in the room.
func (r *Registry) kill(ctx context.Context, actor *game.Entity, args string) error {
	if args == "" {
		return NewUserError("Kill whom?")
	}
	if r.deps.Combat.InCombat(actor.ID) {
		return NewUserError("You're already fighting!")
	}

	target := findInRoom(r.deps.World, actor, args)
	if target == nil {
		return NewUserError("They aren't here.")
	}

	if err := r.deps.Combat.Engage(ctx, actor.ID, target.ID); err != nil {
		return NewUserError(err.Error())
	}

	r.send(actor.ID, "combat", fmt.Sprintf("You attack %s!", target.Name))
	r.send(target.ID, "combat", fmt.Sprintf("%s attacks you!", actor.Name))
	r.sendRoom(actor.RoomID, "combat", fmt.Sprintf("%s attacks %s!", actor.Name, target.Name), actor.ID, target.ID)
	return nil
}

// flee breaks off combat and bolts through a random exit.
func (r *Registry) flee(ctx context.Context, actor *game.Entity, args string) error {
	if !r.deps.Combat.InCombat(actor.ID) {
		return NewUserError("You aren't fighting anyone.")
	}

	r.deps.Combat.Disengage(actor.ID)

	room := r.deps.World.Room(actor.RoomID)
	if room == nil {
		return fmt.Errorf("actor %s is in unknown room %q", actor.ID, actor.RoomID)
	}

	dirs := make([]string, 0, len(room.Spec.Exits))
	for dir := range room.Spec.Exits {
		dirs = append(dirs, dir)
	}
	if len(dirs) == 0 {
		r.send(actor.ID, "combat", "You break off the fight, but there is nowhere to run!")
		return nil
	}
	sort.Strings(dirs)
	dir := dirs[rand.IntN(len(dirs))]
	dest, _ := room.Exit(dir)

	r.sendRoom(actor.RoomID, "combat", fmt.Sprintf("%s flees %s!", actor.Name, dir), actor.ID)
	if err := r.deps.World.Move(actor.ID, dest); err != nil {
		return fmt.Errorf("fleeing %s: %w", actor.ID, err)
	}
	r.send(actor.ID, "combat", fmt.Sprintf("You flee %s!", dir))
	r.sendRoom(actor.RoomID, "info", fmt.Sprintf("%s arrives, panting.", actor.Name), actor.ID)

	if to := r.deps.World.Room(actor.RoomID); to != nil {
		r.send(actor.ID, "room", to.Describe(r.deps.World, actor.ID))
	}
	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-realm/internal/game"
)

// say speaks to the room.
func (r *Registry) say(ctx context.Context, actor *game.Entity, args string) error {
	if args == "" {
		return NewUserError("Say what?")
	}

	r.send(actor.ID, "chat", fmt.Sprintf("You say, '%s'", args))
	r.sendRoom(actor.RoomID, "chat", fmt.Sprintf("%s says, '%s'", actor.Name, args), actor.ID)
	return nil
}

// gossip speaks on the realm-wide channel, carried over the message bus.
// Every subscribed session hears it, the speaker included.
func (r *Registry) gossip(ctx context.Context, actor *game.Entity, args string) error {
	if args == "" {
		return NewUserError("Gossip what?")
	}
	if r.deps.Chat == nil {
		return NewUserError("The gossip channel is quiet today.")
	}

	if err := r.deps.Chat.PublishChat("gossip", actor.Name, args); err != nil {
		return fmt.Errorf("publishing gossip: %w", err)
	}
	return nil
}

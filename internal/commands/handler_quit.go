package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-realm/internal/game"
)

// quit saves the character and removes the entity. The final "disconnect"
// event tells the session writer to close the connection once everything
// queued before it has been delivered.
func (r *Registry) quit(ctx context.Context, actor *game.Entity, args string) error {
	r.deps.Combat.StopAllFor(actor.ID)

	if err := r.deps.Saver.Save(actor); err != nil {
		slog.ErrorContext(ctx, "saving character on quit", "player", actor.ID, "error", err)
	}

	r.sendRoom(actor.RoomID, "info", fmt.Sprintf("%s has left the realm.", actor.Name), actor.ID)
	r.deps.World.RemoveEntity(actor.ID)

	slog.InfoContext(ctx, "player left the realm", "player", actor.ID)

	r.send(actor.ID, "info", "Farewell.")
	r.send(actor.ID, "disconnect", "")
	return nil
}

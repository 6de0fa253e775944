package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/go-realm/internal/game"
)

// who lists everyone in the realm.
func (r *Registry) who(ctx context.Context, actor *game.Entity, args string) error {
	var lines []string
	r.deps.World.ForEachEntity(func(e *game.Entity) {
		if e.Kind != game.KindPlayer {
			return
		}
		where := string(e.RoomID)
		if room := r.deps.World.Room(e.RoomID); room != nil {
			where = room.Spec.Name
		}
		lines = append(lines, fmt.Sprintf("  %s - %s", e.Name, where))
	})

	out := fmt.Sprintf("Players online (%d):\n%s", len(lines), strings.Join(lines, "\n"))
	r.send(actor.ID, "info", out)
	return nil
}

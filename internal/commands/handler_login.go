package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pixil98/go-realm/internal/storage"
)

// login is enqueued by the session once the name prompt (and, for new
// characters, the starting-weapon menu) completes. It is the only command
// that runs without a live actor: its job is to create one. Running it on the
// engine loop keeps all world mutation single-threaded.
func (r *Registry) login(ctx context.Context, sourceID, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("login without a name from %q", sourceID)
	}
	name := fields[0]

	if r.deps.World.Entity(sourceID) != nil {
		return NewUserError("You are already here.")
	}

	char := r.deps.Chars.Get(sourceID)

	roomID := r.deps.StartRoom
	if char != nil && char.LastRoom != "" && r.deps.World.Room(char.LastRoom) != nil {
		roomID = char.LastRoom
	}

	e, err := r.deps.World.AddPlayer(sourceID, name, roomID, char)
	if err != nil {
		return fmt.Errorf("adding player %s: %w", sourceID, err)
	}

	// A fresh character starts with the weapon picked at the login menu.
	if char == nil && len(fields) > 1 {
		if w := r.deps.Weapons.Get(fields[1]); w != nil {
			e.Wielded = w
			e.WieldedID = storage.Identifier(fields[1])
			r.deps.World.MarkDirty(e.ID)
		}
	}

	slog.InfoContext(ctx, "player entered the realm", "player", e.ID, "room", roomID)

	r.send(e.ID, "info", fmt.Sprintf("Welcome, %s.", e.Name))
	if room := r.deps.World.Room(e.RoomID); room != nil {
		r.send(e.ID, "room", room.Describe(r.deps.World, e.ID))
	}
	r.sendRoom(e.RoomID, "info", fmt.Sprintf("%s has arrived.", e.Name), e.ID)

	return nil
}

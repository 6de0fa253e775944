package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/storage"
)

// wield equips a weapon from the armory by id or name. An attack already
// winding up keeps its snapshot; the new weapon matters from the next windup.
func (r *Registry) wield(ctx context.Context, actor *game.Entity, args string) error {
	if args == "" {
		return NewUserError("Wield what?")
	}

	id, weapon := resolveWeapon(r.deps.Weapons, args)
	if weapon == nil {
		return NewUserError("You don't see a weapon like that.")
	}
	if actor.WieldedID == id && actor.Wielded != nil {
		return NewUserError(fmt.Sprintf("You are already wielding %s.", weapon.Name))
	}

	actor.Wielded = weapon
	actor.WieldedID = id
	r.deps.World.MarkDirty(actor.ID)

	r.send(actor.ID, "info", fmt.Sprintf("You wield %s.", weapon.Name))
	r.sendRoom(actor.RoomID, "info", fmt.Sprintf("%s wields %s.", actor.Name, weapon.Name), actor.ID)
	return nil
}

func resolveWeapon(weapons storage.Storer[*game.Weapon], name string) (storage.Identifier, *game.Weapon) {
	if w := weapons.Get(name); w != nil {
		return storage.Identifier(name), w
	}

	name = strings.ToLower(name)
	for id, w := range weapons.GetAll() {
		if strings.Contains(strings.ToLower(w.Name), name) {
			return storage.Identifier(id), w
		}
	}
	return "", nil
}

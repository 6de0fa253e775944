package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/storage"
)

// Character is the persisted record for a player, saved by the persistence
// collaborator and restored at login.
type Character struct {
	Name      string             `json:"name"`
	LastRoom  storage.Identifier `json:"last_room,omitempty"`
	CurrentHP int                `json:"current_hp"`
	MaxHP     int                `json:"max_hp"`
	Stats     map[Stat]int       `json:"stats,omitempty"`
	WieldedID storage.Identifier `json:"wielded,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (c *Character) Validate() error {
	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("character name is required"))
	}
	if c.MaxHP < 1 {
		el.Add(fmt.Errorf("max_hp must be at least 1"))
	}

	return el.Err()
}

// Snapshot captures an entity's persistable state.
func Snapshot(e *Entity) *Character {
	stats := make(map[Stat]int, len(e.Stats))
	for k, v := range e.Stats {
		stats[k] = v
	}
	return &Character{
		Name:      e.Name,
		LastRoom:  e.RoomID,
		CurrentHP: e.CurrentHP,
		MaxHP:     e.MaxHP,
		Stats:     stats,
		WieldedID: e.WieldedID,
	}
}

// Restore applies the record onto a freshly created entity. The weapon
// reference is re-resolved against the current store; a weapon that no
// longer exists leaves the entity unarmed.
func (c *Character) Restore(e *Entity, weapons storage.Storer[*Weapon]) {
	e.Name = c.Name
	e.MaxHP = c.MaxHP
	e.CurrentHP = c.CurrentHP
	if e.CurrentHP < 1 {
		e.CurrentHP = 1
	}
	if len(c.Stats) > 0 {
		e.Stats = make(map[Stat]int, len(c.Stats))
		for k, v := range c.Stats {
			e.Stats[k] = v
		}
	}
	if c.WieldedID != "" && weapons != nil {
		if w := weapons.Get(string(c.WieldedID)); w != nil {
			e.Wielded = w
			e.WieldedID = c.WieldedID
		}
	}
}

package game

import (
	"github.com/pixil98/go-realm/internal/storage"
)

// Stat names a numeric attribute on an entity.
type Stat string

const (
	StatSTR Stat = "str"
	StatDEX Stat = "dex"
	StatCON Stat = "con"
)

// Kind distinguishes player-controlled entities from world-controlled ones.
type Kind int

const (
	KindPlayer Kind = iota
	KindMobile
)

// Entity is one living occupant of the world: a player or a mobile. All
// cross-entity relationships are identifiers resolved through the World's
// flat store, never direct references, so a handler acting on a stale id
// simply fails the lookup.
type Entity struct {
	ID   string
	Kind Kind
	Name string

	// RoomID is the entity's current location. HomeRoomID anchors mobile
	// respawns.
	RoomID     storage.Identifier
	HomeRoomID storage.Identifier

	CurrentHP int
	MaxHP     int
	Stats     map[Stat]int

	// Wielded is the equipped weapon record, nil when unarmed.
	Wielded   *Weapon
	WieldedID storage.Identifier

	Effects []*ActiveEffect

	// MobileID is the content record a mobile was spawned from.
	MobileID storage.Identifier
}

func (e *Entity) IsAlive() bool {
	return e.CurrentHP > 0
}

// ApplyDamage reduces HP, clamping at zero.
func (e *Entity) ApplyDamage(dmg int) {
	e.CurrentHP -= dmg
	if e.CurrentHP < 0 {
		e.CurrentHP = 0
	}
}

// Regenerate restores HP, clamping at max.
func (e *Entity) Regenerate(n int) {
	e.CurrentHP += n
	if e.CurrentHP > e.MaxHP {
		e.CurrentHP = e.MaxHP
	}
}

// Weapon returns the wielded weapon, or the unarmed fallback.
func (e *Entity) Weapon() *Weapon {
	if e.Wielded != nil {
		return e.Wielded
	}
	return Unarmed
}

func (e *Entity) Stat(s Stat) int {
	return e.Stats[s]
}

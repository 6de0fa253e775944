package game

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pixil98/go-realm/internal/storage"
)

// World is the single source of truth for all mutable game state: a flat
// entity store plus room instances, cross-referenced by id only. It is owned
// by the engine loop and carries no locks; transport goroutines never touch
// it.
type World struct {
	rooms    map[storage.Identifier]*RoomInstance
	entities map[string]*Entity

	mobiles storage.Storer[*Mobile]
	weapons storage.Storer[*Weapon]

	// dirty is the persistence collaborator's hook, invoked whenever a unit
	// of work mutates an entity.
	dirty func(entityID string)
}

// NewWorld builds room instances from the room store, resolves mobile weapon
// references, and spawns each room's initial mobiles.
func NewWorld(rooms storage.Storer[*Room], mobiles storage.Storer[*Mobile], weapons storage.Storer[*Weapon]) (*World, error) {
	w := &World{
		rooms:    make(map[storage.Identifier]*RoomInstance),
		entities: make(map[string]*Entity),
		mobiles:  mobiles,
		weapons:  weapons,
	}

	for id, spec := range rooms.GetAll() {
		w.rooms[storage.Identifier(id)] = NewRoomInstance(storage.Identifier(id), spec)
	}

	for id, ri := range w.rooms {
		for dir, dest := range ri.Spec.Exits {
			if _, ok := w.rooms[storage.Identifier(dest)]; !ok {
				return nil, fmt.Errorf("room %s: exit %s leads to unknown room %q", id, dir, dest)
			}
		}
	}

	for id, mob := range mobiles.GetAll() {
		if !mob.Weapon.Empty() {
			if err := mob.Weapon.Resolve(weapons); err != nil {
				return nil, fmt.Errorf("mobile %s: %w", id, err)
			}
		}
	}

	for roomID, ri := range w.rooms {
		for _, mobID := range ri.Spec.Spawns {
			if _, err := w.SpawnMobile(storage.Identifier(mobID), roomID); err != nil {
				return nil, fmt.Errorf("room %s: %w", roomID, err)
			}
		}
	}

	return w, nil
}

// SetDirtyHook installs the persistence hook. Pass nil to disable.
func (w *World) SetDirtyHook(fn func(entityID string)) {
	w.dirty = fn
}

// MarkDirty notifies the persistence collaborator that an entity changed.
func (w *World) MarkDirty(entityID string) {
	if w.dirty != nil {
		w.dirty(entityID)
	}
}

// Entity returns the entity with the given id, or nil.
func (w *World) Entity(id string) *Entity {
	return w.entities[id]
}

// Room returns the room instance with the given id, or nil.
func (w *World) Room(id storage.Identifier) *RoomInstance {
	return w.rooms[id]
}

// AddPlayer places a player entity into the world. The id must not already
// be present.
func (w *World) AddPlayer(id, name string, roomID storage.Identifier, char *Character) (*Entity, error) {
	if _, exists := w.entities[id]; exists {
		return nil, fmt.Errorf("entity %q already present", id)
	}
	room, ok := w.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("unknown room %q", roomID)
	}

	e := &Entity{
		ID:         id,
		Kind:       KindPlayer,
		Name:       name,
		RoomID:     roomID,
		HomeRoomID: roomID,
		MaxHP:      20,
		CurrentHP:  20,
		Stats:      map[Stat]int{StatSTR: 10, StatDEX: 10, StatCON: 10},
	}
	if char != nil {
		char.Restore(e, w.weapons)
	}

	w.entities[id] = e
	room.Add(id)
	w.MarkDirty(id)
	return e, nil
}

// SpawnMobile instantiates a mobile record into a room.
func (w *World) SpawnMobile(mobID storage.Identifier, roomID storage.Identifier) (*Entity, error) {
	mob := w.mobiles.Get(string(mobID))
	if mob == nil {
		return nil, fmt.Errorf("unknown mobile %q", mobID)
	}
	room, ok := w.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("unknown room %q", roomID)
	}

	e := &Entity{
		ID:         fmt.Sprintf("mob-%s", uuid.New().String()),
		Kind:       KindMobile,
		Name:       mob.Name,
		RoomID:     roomID,
		HomeRoomID: roomID,
		MaxHP:      mob.MaxHP,
		CurrentHP:  mob.MaxHP,
		MobileID:   mobID,
		Stats:      map[Stat]int{StatSTR: 10, StatDEX: 10, StatCON: 10},
	}
	for stat, v := range mob.Stats {
		e.Stats[stat] = v
	}
	if !mob.Weapon.Empty() {
		e.Wielded = mob.Weapon.Get()
		e.WieldedID = storage.Identifier(mob.Weapon.Id())
	}

	w.entities[e.ID] = e
	room.Add(e.ID)
	return e, nil
}

// MobileRecord returns the content record a mobile was spawned from, or nil.
func (w *World) MobileRecord(id storage.Identifier) *Mobile {
	return w.mobiles.Get(string(id))
}

// RemoveEntity drops an entity from the store and its room, returning it for
// any final bookkeeping. Unknown ids return nil.
func (w *World) RemoveEntity(id string) *Entity {
	e, ok := w.entities[id]
	if !ok {
		return nil
	}
	if room, ok := w.rooms[e.RoomID]; ok {
		room.Remove(id)
	}
	delete(w.entities, id)
	return e
}

// Move relocates an entity to another room.
func (w *World) Move(id string, toRoomID storage.Identifier) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("unknown entity %q", id)
	}
	to, ok := w.rooms[toRoomID]
	if !ok {
		return fmt.Errorf("unknown room %q", toRoomID)
	}

	if from, ok := w.rooms[e.RoomID]; ok {
		from.Remove(id)
	}
	to.Add(id)
	e.RoomID = toRoomID
	w.MarkDirty(id)
	return nil
}

// ForEachEntity calls fn for every entity, in sorted id order.
func (w *World) ForEachEntity(fn func(*Entity)) {
	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fn(w.entities[id])
	}
}

// RegenerateTick heals every living entity below max HP that is not
// exempted (typically those in combat). It is wired as a recurring
// scheduler callback.
func (w *World) RegenerateTick(exempt func(id string) bool) {
	w.ForEachEntity(func(e *Entity) {
		if !e.IsAlive() || e.CurrentHP >= e.MaxHP {
			return
		}
		if exempt != nil && exempt(e.ID) {
			return
		}
		e.Regenerate(1)
		w.MarkDirty(e.ID)
	})
}

// RoomParticipants implements dispatch.Resolver: the player ids present in a
// room.
func (w *World) RoomParticipants(roomID string) []string {
	room, ok := w.rooms[storage.Identifier(roomID)]
	if !ok {
		return nil
	}
	var out []string
	for _, id := range room.OccupantIDs() {
		if e := w.entities[id]; e != nil && e.Kind == KindPlayer {
			out = append(out, id)
		}
	}
	return out
}

// AllParticipants implements dispatch.Resolver: every player id in the
// world.
func (w *World) AllParticipants() []string {
	var out []string
	w.ForEachEntity(func(e *Entity) {
		if e.Kind == KindPlayer {
			out = append(out, e.ID)
		}
	})
	return out
}

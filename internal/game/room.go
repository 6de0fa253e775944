package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/storage"
)

// Room is a content record describing a location.
type Room struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Exits       map[string]string `json:"exits"`            // direction -> room id
	Spawns      []string          `json:"spawns,omitempty"` // mobile ids; list duplicates for multiples
}

// Validate satisfies storage.ValidatingSpec.
func (r *Room) Validate() error {
	el := errors.NewErrorList()

	if r.Name == "" {
		el.Add(fmt.Errorf("room name is required"))
	}
	for dir, dest := range r.Exits {
		if dest == "" {
			el.Add(fmt.Errorf("exit %s: destination room id is required", dir))
		}
	}

	return el.Err()
}

// RoomInstance is the runtime state of one room: the record plus the set of
// entity ids currently inside. It holds ids only; occupants are resolved
// through the World.
type RoomInstance struct {
	ID   storage.Identifier
	Spec *Room

	occupants map[string]struct{}
}

func NewRoomInstance(id storage.Identifier, spec *Room) *RoomInstance {
	return &RoomInstance{
		ID:        id,
		Spec:      spec,
		occupants: make(map[string]struct{}),
	}
}

func (r *RoomInstance) Add(entityID string) {
	r.occupants[entityID] = struct{}{}
}

func (r *RoomInstance) Remove(entityID string) {
	delete(r.occupants, entityID)
}

func (r *RoomInstance) Contains(entityID string) bool {
	_, ok := r.occupants[entityID]
	return ok
}

// OccupantIDs returns the ids of all entities in the room, sorted for
// deterministic iteration.
func (r *RoomInstance) OccupantIDs() []string {
	ids := make([]string, 0, len(r.occupants))
	for id := range r.occupants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Exit returns the destination room id for a direction.
func (r *RoomInstance) Exit(direction string) (storage.Identifier, bool) {
	dest, ok := r.Spec.Exits[direction]
	return storage.Identifier(dest), ok
}

// Describe renders the room for a viewer: name, description, exits, and the
// other occupants.
func (r *RoomInstance) Describe(w *World, viewerID string) string {
	var b strings.Builder
	b.WriteString(r.Spec.Name)
	b.WriteString("\n")
	b.WriteString(r.Spec.Description)
	b.WriteString("\n")

	dirs := make([]string, 0, len(r.Spec.Exits))
	for dir := range r.Spec.Exits {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		b.WriteString("There are no obvious exits.\n")
	} else {
		b.WriteString(fmt.Sprintf("Exits: %s\n", strings.Join(dirs, ", ")))
	}

	for _, id := range r.OccupantIDs() {
		if id == viewerID {
			continue
		}
		e := w.Entity(id)
		if e == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("%s is here.\n", e.Name))
	}

	return b.String()
}

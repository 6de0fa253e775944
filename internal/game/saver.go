package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/storage"
)

// CharacterSaver is the persistence collaborator: it collects dirty entity
// ids via the world's MarkDirty hook and writes player records back to the
// character store. Mark and FlushShutdown both run on the engine loop, so no
// locking is needed.
type CharacterSaver struct {
	world *World
	chars storage.Storer[*Character]
	dirty map[string]struct{}
}

func NewCharacterSaver(world *World, chars storage.Storer[*Character]) *CharacterSaver {
	s := &CharacterSaver{
		world: world,
		chars: chars,
		dirty: make(map[string]struct{}),
	}
	world.SetDirtyHook(s.Mark)
	return s
}

// Mark records that an entity was mutated.
func (s *CharacterSaver) Mark(entityID string) {
	s.dirty[entityID] = struct{}{}
}

// Save persists one player entity immediately, used when a player quits
// before shutdown.
func (s *CharacterSaver) Save(e *Entity) error {
	if e.Kind != KindPlayer {
		return nil
	}
	delete(s.dirty, e.ID)
	return s.chars.Save(e.ID, Snapshot(e))
}

// FlushShutdown implements engine.Flusher: every dirty player entity still
// in the world is saved before the loop exits.
func (s *CharacterSaver) FlushShutdown(ctx context.Context) error {
	el := errors.NewErrorList()

	for id := range s.dirty {
		e := s.world.Entity(id)
		if e == nil || e.Kind != KindPlayer {
			continue
		}
		if err := s.chars.Save(id, Snapshot(e)); err != nil {
			el.Add(fmt.Errorf("saving %s: %w", id, err))
		}
	}
	s.dirty = make(map[string]struct{})

	slog.InfoContext(ctx, "character state flushed")
	return el.Err()
}

package game

import (
	"github.com/pixil98/go-realm/internal/scheduler"
)

// Effect describes a named set of stat deltas. Applying and removing the
// same effect is exactly net-zero.
type Effect struct {
	Name   string
	Deltas map[Stat]int
}

// ActiveEffect is an effect currently applied to an entity, together with
// the scheduler handle of its expiration callback. Effects without an
// expiration (admin overrides) have ExpiresSet false.
type ActiveEffect struct {
	Effect     Effect
	ExpireID   scheduler.ID
	ExpiresSet bool
}

// ApplyEffect adds the effect's deltas to the entity's stats and records it
// as active.
func (e *Entity) ApplyEffect(eff Effect, expireID scheduler.ID, expires bool) {
	if e.Stats == nil {
		e.Stats = make(map[Stat]int)
	}
	for stat, delta := range eff.Deltas {
		e.Stats[stat] += delta
	}
	e.Effects = append(e.Effects, &ActiveEffect{
		Effect:     eff,
		ExpireID:   expireID,
		ExpiresSet: expires,
	})
}

// RemoveEffect reverses and drops the first active effect with the given
// name. It reports whether one was found; removing an already-expired effect
// is a no-op.
func (e *Entity) RemoveEffect(name string) bool {
	for i, ae := range e.Effects {
		if ae.Effect.Name != name {
			continue
		}
		for stat, delta := range ae.Effect.Deltas {
			e.Stats[stat] -= delta
		}
		e.Effects = append(e.Effects[:i], e.Effects[i+1:]...)
		return true
	}
	return false
}

// FindEffect returns the first active effect with the given name, or nil.
func (e *Entity) FindEffect(name string) *ActiveEffect {
	for _, ae := range e.Effects {
		if ae.Effect.Name == name {
			return ae
		}
	}
	return nil
}

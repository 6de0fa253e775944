package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pixil98/go-realm/internal/game"
)

const (
	buffDelta           = 2
	defaultBuffDuration = 30 * time.Second
)

var buffs = map[string]game.Effect{
	"str": {Name: "surge of strength", Deltas: map[game.Stat]int{game.StatSTR: buffDelta}},
	"dex": {Name: "surge of agility", Deltas: map[game.Stat]int{game.StatDEX: buffDelta}},
	"con": {Name: "surge of vigor", Deltas: map[game.Stat]int{game.StatCON: buffDelta}},
}

// buff applies a temporary stat effect, optionally with a duration ("buff
// dex 10s") or permanently ("buff str perm"). The expiration callback carries
// the effect name and the actor id only; if either is gone when it fires, it
// does nothing. Apply and expire are exact inverses.
func (r *Registry) buff(ctx context.Context, actor *game.Entity, args string) error {
	stat, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	eff, ok := buffs[stat]
	if !ok {
		return NewUserError("You can buff 'str', 'dex', or 'con'.")
	}

	if rest == "perm" {
		return r.buffPerm(actor, eff)
	}

	if actor.FindEffect(eff.Name) != nil {
		return NewUserError(fmt.Sprintf("You are already under a %s.", eff.Name))
	}

	duration := defaultBuffDuration
	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil || d <= 0 {
			return NewUserError("That's not a duration I understand. Try something like '10s'.")
		}
		duration = d
	}

	actorID := actor.ID
	name := eff.Name
	expireID, err := r.deps.Sched.Schedule(duration, func(ctx context.Context) {
		e := r.deps.World.Entity(actorID)
		if e == nil {
			return
		}
		if e.RemoveEffect(name) {
			r.deps.World.MarkDirty(actorID)
			r.send(actorID, "info", fmt.Sprintf("The %s fades.", name))
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling buff expiry: %w", err)
	}

	actor.ApplyEffect(eff, expireID, true)
	r.deps.World.MarkDirty(actor.ID)

	r.send(actor.ID, "info", fmt.Sprintf("A %s courses through you.", eff.Name))
	return nil
}

// buffPerm makes the effect permanent. An active effect has its expiration
// cancelled through the stored handle, leaving the modifier in place; a fresh
// one is applied with no expiration at all.
func (r *Registry) buffPerm(actor *game.Entity, eff game.Effect) error {
	if ae := actor.FindEffect(eff.Name); ae != nil {
		if ae.ExpiresSet {
			r.deps.Sched.Cancel(ae.ExpireID)
			ae.ExpiresSet = false
		}
		r.deps.World.MarkDirty(actor.ID)
		r.send(actor.ID, "info", fmt.Sprintf("The %s settles in for good.", eff.Name))
		return nil
	}

	actor.ApplyEffect(eff, 0, false)
	r.deps.World.MarkDirty(actor.ID)
	r.send(actor.ID, "info", fmt.Sprintf("A %s courses through you, and stays.", eff.Name))
	return nil
}

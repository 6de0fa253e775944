package combat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/scheduler"
)

// Deaths implements DeathHandler. Mobiles are removed and respawn at their
// home room after their record's respawn delay; players are restored and sent
// home.
type Deaths struct {
	world  *game.World
	sched  *scheduler.Scheduler
	events *dispatch.Dispatcher
}

func NewDeaths(world *game.World, sched *scheduler.Scheduler, events *dispatch.Dispatcher) *Deaths {
	return &Deaths{
		world:  world,
		sched:  sched,
		events: events,
	}
}

func (d *Deaths) OnDeath(ctx context.Context, victim *game.Entity) {
	switch victim.Kind {
	case game.KindMobile:
		d.mobileDeath(ctx, victim)
	case game.KindPlayer:
		d.playerDeath(ctx, victim)
	}
}

// mobileDeath removes the corpse and schedules a fresh spawn of the same
// record at the mobile's home room. The callback carries the record id and
// the room, never the dead entity.
func (d *Deaths) mobileDeath(ctx context.Context, victim *game.Entity) {
	d.world.RemoveEntity(victim.ID)

	mob := d.world.MobileRecord(victim.MobileID)
	if mob == nil {
		slog.WarnContext(ctx, "dead mobile has no record, not respawning", "entity", victim.ID, "mobile", victim.MobileID)
		return
	}

	mobID := victim.MobileID
	roomID := victim.HomeRoomID
	_, err := d.sched.Schedule(mob.Respawn(), func(ctx context.Context) {
		e, err := d.world.SpawnMobile(mobID, roomID)
		if err != nil {
			slog.ErrorContext(ctx, "respawning mobile", "mobile", mobID, "room", roomID, "error", err)
			return
		}
		d.events.Publish(dispatch.Event{
			Scope:  dispatch.ScopeRoom,
			RoomID: string(roomID),
			Kind:   "spawn",
			Text:   fmt.Sprintf("%s arrives.", e.Name),
		})
	})
	if err != nil {
		slog.ErrorContext(ctx, "scheduling respawn", "mobile", mobID, "error", err)
	}
}

// playerDeath restores the player and returns them to their home room. There
// is no corpse run; death costs only position.
func (d *Deaths) playerDeath(ctx context.Context, victim *game.Entity) {
	victim.CurrentHP = victim.MaxHP
	if err := d.world.Move(victim.ID, victim.HomeRoomID); err != nil {
		slog.ErrorContext(ctx, "moving dead player home", "entity", victim.ID, "room", victim.HomeRoomID, "error", err)
	}
	d.world.MarkDirty(victim.ID)

	d.events.Publish(dispatch.Event{
		Scope:    dispatch.ScopeParticipant,
		TargetID: victim.ID,
		Kind:     "death",
		Text:     "You have died. The world blurs, and you awaken somewhere familiar.",
	})
	d.events.Publish(dispatch.Event{
		Scope:   dispatch.ScopeRoom,
		RoomID:  string(victim.HomeRoomID),
		Exclude: []string{victim.ID},
		Kind:    "death",
		Text:    fmt.Sprintf("%s appears, looking shaken.", victim.Name),
	})

	if room := d.world.Room(victim.HomeRoomID); room != nil {
		d.events.Publish(dispatch.Event{
			Scope:    dispatch.ScopeParticipant,
			TargetID: victim.ID,
			Kind:     "room",
			Text:     room.Describe(d.world, victim.ID),
		})
	}
}

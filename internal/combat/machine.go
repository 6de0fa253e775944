package combat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/scheduler"
)

// DefaultRecoveryDelay is the fixed pause between a resolved swing and the
// next windup.
const DefaultRecoveryDelay = 600 * time.Millisecond

// Phase is a combat sub-phase gating attack timing.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWindup
	PhaseSwing
	PhaseRecovery
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWindup:
		return "windup"
	case PhaseSwing:
		return "swing"
	case PhaseRecovery:
		return "recovery"
	}
	return "unknown"
}

// Snapshot is the weapon stats captured at WINDUP entry. A weapon swap while
// a swing is in flight does not touch the snapshot; it takes effect the next
// time WINDUP is entered.
type Snapshot struct {
	WeaponName string
	DamageMin  int
	DamageMax  int
	Interval   time.Duration
	DamageType string
}

func SnapshotWeapon(w *game.Weapon) Snapshot {
	return Snapshot{
		WeaponName: w.Name,
		DamageMin:  w.DamageMin,
		DamageMax:  w.DamageMax,
		Interval:   w.Interval(),
		DamageType: w.DamageType,
	}
}

// State is one entity's combat state. At most one pending scheduler event
// exists per entity; it is cancelled unconditionally whenever the state is
// reset so a stale callback can never act on a finished fight.
type State struct {
	EntityID       string
	TargetID       string
	Phase          Phase
	PhaseStartedAt time.Time
	Pending        scheduler.ID
	HasPending     bool
	Snapshot       Snapshot
}

// DeathHandler runs game-level consequences of a death (corpse, respawn,
// player restore). Invoked on the engine loop.
type DeathHandler interface {
	OnDeath(ctx context.Context, victim *game.Entity)
}

// Tracker drives every entity's combat state machine. All transitions run
// through scheduler callbacks processed by the engine loop; the tracker
// itself holds no locks and is engine-loop only. Scheduled callbacks carry
// entity ids, re-resolved against the world when they fire, never entity
// pointers.
type Tracker struct {
	sched  *scheduler.Scheduler
	world  *game.World
	events *dispatch.Dispatcher

	states map[string]*State

	clock    func() time.Time
	recovery time.Duration
	roll     func(min, max int) int
	crit     func() bool
	deaths   DeathHandler
}

type TrackerOpt func(*Tracker)

// WithClock replaces the time source, used by tests.
func WithClock(clock func() time.Time) TrackerOpt {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// WithRecoveryDelay overrides the post-swing pause.
func WithRecoveryDelay(d time.Duration) TrackerOpt {
	return func(t *Tracker) {
		t.recovery = d
	}
}

// WithRolls replaces the damage and crit rolls, used by tests for
// deterministic outcomes.
func WithRolls(roll func(min, max int) int, crit func() bool) TrackerOpt {
	return func(t *Tracker) {
		t.roll = roll
		t.crit = crit
	}
}

// WithDeathHandler installs the game-level death consequences.
func WithDeathHandler(h DeathHandler) TrackerOpt {
	return func(t *Tracker) {
		t.deaths = h
	}
}

func NewTracker(sched *scheduler.Scheduler, world *game.World, events *dispatch.Dispatcher, opts ...TrackerOpt) *Tracker {
	t := &Tracker{
		sched:    sched,
		world:    world,
		events:   events,
		states:   make(map[string]*State),
		clock:    time.Now,
		recovery: DefaultRecoveryDelay,
		roll:     RollDamage,
		crit:     RollCrit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// InCombat reports whether an entity has an active combat state.
func (t *Tracker) InCombat(entityID string) bool {
	_, ok := t.states[entityID]
	return ok
}

// State returns an entity's combat state, or nil.
func (t *Tracker) State(entityID string) *State {
	return t.states[entityID]
}

// Engage starts a fight. The returned error is player-facing.
func (t *Tracker) Engage(ctx context.Context, attackerID, targetID string) error {
	attacker := t.world.Entity(attackerID)
	if attacker == nil {
		return fmt.Errorf("you are nowhere to be found")
	}
	if !attacker.IsAlive() {
		return fmt.Errorf("you are in no shape to fight")
	}
	if _, fighting := t.states[attackerID]; fighting {
		return fmt.Errorf("you are already fighting")
	}
	if attackerID == targetID {
		return fmt.Errorf("you cannot attack yourself")
	}

	target := t.world.Entity(targetID)
	if target == nil || target.RoomID != attacker.RoomID {
		return fmt.Errorf("they are not here")
	}
	if !target.IsAlive() {
		return fmt.Errorf("they are already dead")
	}

	st := &State{
		EntityID: attackerID,
		TargetID: targetID,
	}
	t.states[attackerID] = st
	t.beginWindup(st, attacker)

	// A mobile that is attacked fights back.
	if target.Kind == game.KindMobile {
		if _, fighting := t.states[targetID]; !fighting {
			back := &State{
				EntityID: targetID,
				TargetID: attackerID,
			}
			t.states[targetID] = back
			t.beginWindup(back, target)
		}
	}

	return nil
}

// Disengage ends an entity's fight, cancelling any in-flight transition.
func (t *Tracker) Disengage(entityID string) bool {
	st, ok := t.states[entityID]
	if !ok {
		return false
	}
	t.reset(st)
	return true
}

// StopAllFor resets the entity's own combat and every combat targeting it.
// Called on disengage-by-removal: death, entity deletion, disconnect.
func (t *Tracker) StopAllFor(entityID string) {
	if st, ok := t.states[entityID]; ok {
		t.reset(st)
	}
	for _, st := range t.states {
		if st.TargetID == entityID {
			t.reset(st)
		}
	}
}

// reset returns a state to IDLE. The pending callback is cancelled
// unconditionally before the state is dropped.
func (t *Tracker) reset(st *State) {
	if st.HasPending {
		t.sched.Cancel(st.Pending)
		st.Pending = 0
		st.HasPending = false
	}
	st.Phase = PhaseIdle
	st.TargetID = ""
	delete(t.states, st.EntityID)
}

// beginWindup snapshots the attacker's current weapon and schedules the
// swing. This is the only place the weapon is read; equipment changes made
// in any other phase wait for the next windup.
func (t *Tracker) beginWindup(st *State, attacker *game.Entity) {
	st.Snapshot = SnapshotWeapon(attacker.Weapon())
	st.Phase = PhaseWindup
	st.PhaseStartedAt = t.clock()

	id := st.EntityID
	evID, err := t.sched.Schedule(st.Snapshot.Interval, func(ctx context.Context) {
		t.swing(ctx, id)
	})
	if err != nil {
		// Interval comes from a validated weapon record; treat failure as a
		// fight that cannot proceed.
		slog.Error("scheduling swing", "entity", id, "error", err)
		t.reset(st)
		return
	}
	st.Pending = evID
	st.HasPending = true
}

// swing resolves one attack. It re-validates the fight against current world
// state before any damage: a target that died or left between scheduling and
// firing is never hit by a ghost swing.
func (t *Tracker) swing(ctx context.Context, entityID string) {
	st, ok := t.states[entityID]
	if !ok {
		return
	}
	st.Pending = 0
	st.HasPending = false

	attacker, target := t.validate(st)
	if attacker == nil || target == nil {
		t.reset(st)
		return
	}

	st.Phase = PhaseSwing
	st.PhaseStartedAt = t.clock()

	damage := t.roll(st.Snapshot.DamageMin, st.Snapshot.DamageMax)
	critical := t.crit()
	if critical {
		damage *= CritMultiplier
	}
	target.ApplyDamage(damage)
	t.world.MarkDirty(target.ID)
	t.world.MarkDirty(attacker.ID)

	t.publishSwing(attacker, target, damage, critical)

	if !target.IsAlive() {
		t.handleDeath(ctx, attacker, target)
		return
	}

	// Recovery: a short fixed pause, then the next windup.
	st.Phase = PhaseRecovery
	st.PhaseStartedAt = t.clock()
	evID, err := t.sched.Schedule(t.recovery, func(ctx context.Context) {
		t.recover(ctx, entityID)
	})
	if err != nil {
		slog.Error("scheduling recovery", "entity", entityID, "error", err)
		t.reset(st)
		return
	}
	st.Pending = evID
	st.HasPending = true
}

// recover re-validates and re-enters windup, picking up any equipment change
// made during recovery.
func (t *Tracker) recover(_ context.Context, entityID string) {
	st, ok := t.states[entityID]
	if !ok {
		return
	}
	st.Pending = 0
	st.HasPending = false

	attacker, target := t.validate(st)
	if attacker == nil || target == nil {
		t.reset(st)
		return
	}

	t.beginWindup(st, attacker)
}

// validate re-resolves both fighters and checks the fight is still live:
// both present, both alive, both co-located. Anything else is a stale fight.
func (t *Tracker) validate(st *State) (attacker, target *game.Entity) {
	attacker = t.world.Entity(st.EntityID)
	target = t.world.Entity(st.TargetID)
	if attacker == nil || target == nil {
		return nil, nil
	}
	if !attacker.IsAlive() || !target.IsAlive() {
		return nil, nil
	}
	if attacker.RoomID != target.RoomID {
		return nil, nil
	}
	return attacker, target
}

func (t *Tracker) publishSwing(attacker, target *game.Entity, damage int, critical bool) {
	first, third := DamageVerbs(damage)
	crit := ""
	if critical {
		crit = " Critical hit!"
	}

	t.events.Publish(dispatch.Event{
		Scope:    dispatch.ScopeParticipant,
		TargetID: attacker.ID,
		Kind:     "combat",
		Text:     fmt.Sprintf("You %s %s for %d damage.%s", first, target.Name, damage, crit),
	})
	t.events.Publish(dispatch.Event{
		Scope:    dispatch.ScopeParticipant,
		TargetID: target.ID,
		Kind:     "combat",
		Text:     fmt.Sprintf("%s %s you for %d damage.%s", attacker.Name, third, damage, crit),
	})
	t.events.Publish(dispatch.Event{
		Scope:   dispatch.ScopeRoom,
		RoomID:  string(attacker.RoomID),
		Exclude: []string{attacker.ID, target.ID},
		Kind:    "combat",
		Text:    fmt.Sprintf("%s %s %s!", attacker.Name, third, target.Name),
	})
}

// handleDeath ends every fight involving the victim, then hands off to the
// death handler for respawn logic.
func (t *Tracker) handleDeath(ctx context.Context, attacker, victim *game.Entity) {
	t.events.Publish(dispatch.Event{
		Scope:    dispatch.ScopeParticipant,
		TargetID: attacker.ID,
		Kind:     "combat",
		Text:     fmt.Sprintf("%s is DEAD!", victim.Name),
	})
	t.events.Publish(dispatch.Event{
		Scope:   dispatch.ScopeRoom,
		RoomID:  string(victim.RoomID),
		Exclude: []string{attacker.ID, victim.ID},
		Kind:    "combat",
		Text:    fmt.Sprintf("%s has been slain by %s!", victim.Name, attacker.Name),
	})

	t.StopAllFor(victim.ID)

	if t.deaths != nil {
		t.deaths.OnDeath(ctx, victim)
	}
}

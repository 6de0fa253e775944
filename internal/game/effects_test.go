package game

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestApplyAndRemoveEffectAreExactInverses(t *testing.T) {
	e := &Entity{Stats: map[Stat]int{StatSTR: 10, StatDEX: 10, StatCON: 10}}

	eff := Effect{Name: "surge of strength", Deltas: map[Stat]int{StatSTR: 2, StatCON: -1}}
	e.ApplyEffect(eff, 7, true)

	testutil.AssertEqual(t, "str raised", e.Stat(StatSTR), 12)
	testutil.AssertEqual(t, "con lowered", e.Stat(StatCON), 9)
	testutil.AssertEqual(t, "dex untouched", e.Stat(StatDEX), 10)
	testutil.AssertEqual(t, "tracked", e.FindEffect("surge of strength") != nil, true)

	testutil.AssertEqual(t, "removed", e.RemoveEffect("surge of strength"), true)
	testutil.AssertEqual(t, "str restored", e.Stat(StatSTR), 10)
	testutil.AssertEqual(t, "con restored", e.Stat(StatCON), 10)
	testutil.AssertEqual(t, "no longer tracked", e.FindEffect("surge of strength") == nil, true)
}

func TestRemoveEffectIsIdempotent(t *testing.T) {
	e := &Entity{Stats: map[Stat]int{StatSTR: 10}}
	e.ApplyEffect(Effect{Name: "surge of strength", Deltas: map[Stat]int{StatSTR: 2}}, 1, true)

	testutil.AssertEqual(t, "first removal", e.RemoveEffect("surge of strength"), true)
	testutil.AssertEqual(t, "second removal", e.RemoveEffect("surge of strength"), false)
	testutil.AssertEqual(t, "stats stable", e.Stat(StatSTR), 10)
}

func TestStackedEffectsRemoveOneAtATime(t *testing.T) {
	e := &Entity{Stats: map[Stat]int{StatSTR: 10}}
	e.ApplyEffect(Effect{Name: "surge of strength", Deltas: map[Stat]int{StatSTR: 2}}, 1, true)
	e.ApplyEffect(Effect{Name: "blessing", Deltas: map[Stat]int{StatSTR: 3}}, 2, true)

	testutil.AssertEqual(t, "both applied", e.Stat(StatSTR), 15)

	e.RemoveEffect("surge of strength")
	testutil.AssertEqual(t, "blessing remains", e.Stat(StatSTR), 13)
	testutil.AssertEqual(t, "one effect left", len(e.Effects), 1)
}

package combat

import "math/rand/v2"

const (
	// CritChance is the fixed chance that a swing lands critically.
	CritChance = 0.05
	// CritMultiplier scales critical damage.
	CritMultiplier = 2
)

// RollDamage rolls uniformly in [min, max].
func RollDamage(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// RollCrit reports whether a swing is critical.
func RollCrit() bool {
	return rand.Float64() < CritChance
}

var damageMessages = []struct {
	maxDamage int
	verb1st   string // "You {verb} {target}!"
	verb3rd   string // "{attacker} {verb} {target}!"
}{
	{1, "barely scratch", "barely scratches"},
	{2, "tickle", "tickles"},
	{4, "barely hurt", "barely hurts"},
	{6, "hit", "hits"},
	{9, "hit hard", "hits hard"},
	{12, "pummel", "pummels"},
	{16, "thrash", "thrashes"},
	{20, "maul", "mauls"},
	{26, "decimate", "decimates"},
	{34, "devastate", "devastates"},
	{44, "obliterate", "obliterates"},
	{60, "annihilate", "annihilates"},
}

// DamageVerbs returns the 1st and 3rd person verbs for a damage amount.
func DamageVerbs(damage int) (first, third string) {
	for _, msg := range damageMessages {
		if damage <= msg.maxDamage {
			return msg.verb1st, msg.verb3rd
		}
	}
	return "do UNSPEAKABLE things to", "does UNSPEAKABLE things to"
}

package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

// Weapon is a content record describing an equippable weapon. Combat
// snapshots these fields at WINDUP entry; the record itself is never mutated
// at runtime.
type Weapon struct {
	Name          string `json:"name"`
	DamageMin     int    `json:"damage_min"`
	DamageMax     int    `json:"damage_max"`
	SwingInterval string `json:"swing_interval"`
	DamageType    string `json:"damage_type"`
}

// Unarmed is the fallback for entities wielding nothing.
var Unarmed = &Weapon{
	Name:          "bare hands",
	DamageMin:     1,
	DamageMax:     2,
	SwingInterval: "2s",
	DamageType:    "bludgeon",
}

// Validate satisfies storage.ValidatingSpec.
func (w *Weapon) Validate() error {
	el := errors.NewErrorList()

	if w.Name == "" {
		el.Add(fmt.Errorf("weapon name is required"))
	}
	if w.DamageMin < 1 {
		el.Add(fmt.Errorf("damage_min must be at least 1"))
	}
	if w.DamageMax < w.DamageMin {
		el.Add(fmt.Errorf("damage_max must be at least damage_min"))
	}

	d, err := time.ParseDuration(w.SwingInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing swing_interval: %w", err))
	} else if d <= 0 {
		el.Add(fmt.Errorf("swing_interval must be positive"))
	}

	if w.DamageType == "" {
		el.Add(fmt.Errorf("damage_type is required"))
	}

	return el.Err()
}

// Selector is the label shown in the starting-weapon menu at login.
func (w *Weapon) Selector() string {
	return w.Name
}

// Interval returns the parsed swing interval. Records are validated at load,
// so a parse failure here means the record bypassed the store; fall back to
// the unarmed pace rather than a zero interval.
func (w *Weapon) Interval() time.Duration {
	d, err := time.ParseDuration(w.SwingInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

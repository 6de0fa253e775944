package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/storage"
)

const DefaultRespawnDelay = 30 * time.Second

// Mobile is a content record describing a world-controlled entity.
type Mobile struct {
	Name         string                            `json:"name"`
	MaxHP        int                               `json:"max_hp"`
	Weapon       storage.SmartIdentifier[*Weapon]  `json:"weapon,omitempty"`
	Stats        map[Stat]int                      `json:"stats,omitempty"`
	RespawnDelay string                            `json:"respawn_delay,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (m *Mobile) Validate() error {
	el := errors.NewErrorList()

	if m.Name == "" {
		el.Add(fmt.Errorf("mobile name is required"))
	}
	if m.MaxHP < 1 {
		el.Add(fmt.Errorf("max_hp must be at least 1"))
	}
	if m.RespawnDelay != "" {
		if _, err := time.ParseDuration(m.RespawnDelay); err != nil {
			el.Add(fmt.Errorf("parsing respawn_delay: %w", err))
		}
	}

	return el.Err()
}

// Respawn returns the configured respawn delay, or the default.
func (m *Mobile) Respawn() time.Duration {
	if m.RespawnDelay == "" {
		return DefaultRespawnDelay
	}
	d, err := time.ParseDuration(m.RespawnDelay)
	if err != nil {
		return DefaultRespawnDelay
	}
	return d
}

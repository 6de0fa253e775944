package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	Engine    EngineConfig     `json:"engine"`
	Listeners []ListenerConfig `json:"listeners"`
	Storage   StorageConfig    `json:"storage"`
	Nats      NatsConfig       `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(c.Engine.validate())

	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())

	return el.Err()
}

type EngineConfig struct {
	// StartRoom is where new characters enter the world.
	StartRoom string `json:"start_room"`

	// MaxPoll caps the engine loop's idle sleep. Optional.
	MaxPoll string `json:"max_poll,omitempty"`

	// RegenInterval is the period of the passive healing tick. Optional,
	// defaults to 10s.
	RegenInterval string `json:"regen_interval,omitempty"`
}

const defaultRegenInterval = 10 * time.Second

func (c *EngineConfig) validate() error {
	el := errors.NewErrorList()

	if c.StartRoom == "" {
		el.Add(fmt.Errorf("start_room is required"))
	}

	if c.MaxPoll != "" {
		d, err := time.ParseDuration(c.MaxPoll)
		if err != nil {
			el.Add(fmt.Errorf("parsing max_poll: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("max_poll must be positive"))
		}
	}

	if c.RegenInterval != "" {
		d, err := time.ParseDuration(c.RegenInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing regen_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("regen_interval must be at least 1 second"))
		}
	}

	return el.Err()
}

func (c *EngineConfig) regenInterval() time.Duration {
	if c.RegenInterval == "" {
		return defaultRegenInterval
	}
	d, err := time.ParseDuration(c.RegenInterval)
	if err != nil {
		return defaultRegenInterval
	}
	return d
}

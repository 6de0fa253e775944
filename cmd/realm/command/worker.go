package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-realm/internal/combat"
	"github.com/pixil98/go-realm/internal/commands"
	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/engine"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/listener"
	"github.com/pixil98/go-realm/internal/messaging"
	"github.com/pixil98/go-realm/internal/scheduler"
	"github.com/pixil98/go-realm/internal/session"
	"github.com/pixil98/go-realm/internal/storage"
	service "github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load content and character stores
	stores, err := cfg.Storage.BuildStores()
	if err != nil {
		return nil, fmt.Errorf("loading storage: %w", err)
	}

	// Build the world from content
	world, err := game.NewWorld(stores.Rooms, stores.Mobiles, stores.Weapons)
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}

	startRoom := storage.Identifier(cfg.Engine.StartRoom)
	if world.Room(startRoom) == nil {
		return nil, fmt.Errorf("start_room %q does not exist", cfg.Engine.StartRoom)
	}

	// Core engine pieces
	queue := engine.NewQueue()
	sched := scheduler.New()
	events := dispatch.NewDispatcher(world)
	saver := game.NewCharacterSaver(world, stores.Characters)

	tracker := combat.NewTracker(sched, world, events,
		combat.WithDeathHandler(combat.NewDeaths(world, sched, events)),
	)

	// Message bus and chat
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	chat := messaging.NewChatPublisher(natsServer)

	registry := commands.NewRegistry(commands.Deps{
		World:     world,
		Combat:    tracker,
		Sched:     sched,
		Events:    events,
		Chat:      chat,
		Weapons:   stores.Weapons,
		Chars:     stores.Characters,
		Saver:     saver,
		StartRoom: startRoom,
	})

	// Passive healing tick, paused for anyone in combat
	regen := cfg.Engine.regenInterval()
	if _, err := sched.ScheduleEvery(regen, regen, func(ctx context.Context) {
		world.RegenerateTick(tracker.InCombat)
	}); err != nil {
		return nil, fmt.Errorf("scheduling regeneration: %w", err)
	}

	loopOpts := []engine.LoopOpt{engine.WithFlusher(saver)}
	if cfg.Engine.MaxPoll != "" {
		d, err := time.ParseDuration(cfg.Engine.MaxPoll)
		if err != nil {
			return nil, fmt.Errorf("parsing max_poll: %w", err)
		}
		loopOpts = append(loopOpts, engine.WithMaxPoll(d))
	}
	loop := engine.NewLoop(queue, sched, registry, events, loopOpts...)

	// Sessions and transports
	sessions := session.NewManager(queue, events, stores.Characters, storage.NewSelectableStorer[*game.Weapon](stores.Weapons), chat)
	cm := listener.NewConnectionManager(sessions)

	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lst, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lst
	}

	return service.WorkerList{
		"nats":      natsServer,
		"engine":    loop,
		"listeners": &listeners,
	}, nil
}

package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/pixil98/go-realm/internal"
	"github.com/pixil98/go-realm/internal/dispatch"
	"github.com/pixil98/go-realm/internal/display"
	"github.com/pixil98/go-realm/internal/engine"
	"github.com/pixil98/go-realm/internal/game"
	"github.com/pixil98/go-realm/internal/messaging"
	"github.com/pixil98/go-realm/internal/storage"
)

const maxNameTries = 3

// Manager runs one session per connection. A session owns the connection's
// read and write sides and talks to the engine exclusively through the
// command queue and the event dispatcher; it never touches world state.
type Manager struct {
	queue   *engine.Queue
	events  *dispatch.Dispatcher
	chars   storage.Storer[*game.Character]
	weapons *storage.SelectableStorer[*game.Weapon]
	chat    *messaging.ChatPublisher

	mu     sync.Mutex
	active map[string]struct{}
}

func NewManager(queue *engine.Queue, events *dispatch.Dispatcher, chars storage.Storer[*game.Character], weapons *storage.SelectableStorer[*game.Weapon], chat *messaging.ChatPublisher) *Manager {
	return &Manager{
		queue:   queue,
		events:  events,
		chars:   chars,
		weapons: weapons,
		chat:    chat,
		active:  make(map[string]struct{}),
	}
}

// RunSession drives a connection from login prompt to disconnect. It returns
// when the player quits, the connection drops, or ctx is cancelled.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	fmt.Fprintf(conn, "Welcome, traveler.\n")

	name, err := internal.Prompt(conn, "What is your name? ",
		internal.WithValidator(validateName),
		internal.WithMaxTries(maxNameTries),
	)
	if err != nil {
		return fmt.Errorf("prompting for name: %w", err)
	}
	name = display.TitleName(name)
	id := strings.ToLower(name)

	if !m.reserve(id) {
		fmt.Fprintf(conn, "%s is already in the realm.\n", name)
		return nil
	}
	defer m.release(id)

	loginCmd := "login " + name
	if m.chars.Get(id) == nil {
		ok, err := internal.PromptYN(conn, fmt.Sprintf("%s is new here. Create them (Y/N)? ", name))
		if err != nil {
			return fmt.Errorf("confirming new character: %w", err)
		}
		if !ok {
			fmt.Fprintf(conn, "Until next time.\n")
			return nil
		}

		weaponID, err := m.weapons.Prompt(conn, "Choose your starting weapon:")
		if err != nil {
			return fmt.Errorf("prompting for weapon: %w", err)
		}
		loginCmd += " " + string(weaponID)
	}

	// The delivery queue must exist before the login command is enqueued, or
	// the welcome events would be dropped.
	wake := m.events.Register(id)
	defer m.events.Unregister(id)

	chatCh := make(chan messaging.ChatMessage, 16)
	if m.chat != nil {
		unsub, err := m.chat.SubscribeChat("gossip", func(msg messaging.ChatMessage) {
			select {
			case chatCh <- msg:
			default:
				// A session that can't keep up drops chat rather than
				// blocking the bus callback.
			}
		})
		if err != nil {
			return fmt.Errorf("subscribing to chat: %w", err)
		}
		defer unsub()
	}

	m.queue.Push(id, loginCmd)

	// Reader goroutine: every input line becomes a command. It unblocks when
	// the listener closes the connection after we return.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			m.queue.Push(id, line)
		}
	}()

	slog.InfoContext(ctx, "session started", "player", id)

	for {
		select {
		case <-ctx.Done():
			// Server shutdown: the engine drains the quit before its own
			// shutdown flush, so the character is saved.
			m.queue.Push(id, "quit")
			return nil

		case <-readerDone:
			// Connection dropped without a quit.
			m.queue.Push(id, "quit")
			return nil

		case msg := <-chatCh:
			if _, err := fmt.Fprintf(conn, "[%s] %s: %s\n", msg.Channel, msg.From, msg.Text); err != nil {
				m.queue.Push(id, "quit")
				return nil
			}

		case <-wake:
			for _, ev := range m.events.Drain(id) {
				if ev.Kind == "disconnect" {
					slog.InfoContext(ctx, "session ended", "player", id)
					return nil
				}
				if _, err := fmt.Fprintf(conn, "%s\n", display.Wrap(display.Capitalize(ev.Text))); err != nil {
					m.queue.Push(id, "quit")
					return nil
				}
			}
		}
	}
}

func (m *Manager) reserve(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[id]; ok {
		return false
	}
	m.active[id] = struct{}{}
	return true
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, id)
}

func validateName(name string) (bool, string) {
	if len(name) < 2 || len(name) > 16 {
		return false, "Names are 2 to 16 letters.\n"
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false, "Letters only, please.\n"
		}
	}
	return true, ""
}

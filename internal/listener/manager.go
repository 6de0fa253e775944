package listener

import (
	"context"
	"io"
	"log/slog"

	"github.com/pixil98/go-realm/internal/session"
)

// ConnectionManager hands accepted connections to the session manager. Each
// transport (telnet, ssh) calls AcceptConnection on its own goroutine.
type ConnectionManager struct {
	sessions *session.Manager
}

func NewConnectionManager(sm *session.Manager) *ConnectionManager {
	return &ConnectionManager{
		sessions: sm,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	if err := m.sessions.RunSession(ctx, conn); err != nil {
		slog.WarnContext(ctx, "player session", "error", err)
	}
}

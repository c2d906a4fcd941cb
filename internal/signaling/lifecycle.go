package signaling

import (
	"log/slog"

	"github.com/supportdesk/signaling-platform/internal/presence"
	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/internal/room"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/fx"
)

// Lifecycle unwinds connection state on transport connect/disconnect
// events. Disconnect handling is idempotent: a flaky transport may
// report the same close twice, and the second pass must find nothing
// left to do.
type Lifecycle struct {
	registry *registry.Registry
	rooms    *room.Store
	notifier *room.Notifier
	presence *presence.Broadcaster
	logger   *slog.Logger
}

type NewLifecycleParams struct {
	fx.In

	Registry *registry.Registry
	Rooms    *room.Store
	Notifier *room.Notifier
	Presence *presence.Broadcaster
	Logger   *slog.Logger
}

func NewLifecycle(params NewLifecycleParams) *Lifecycle {
	return &Lifecycle{
		registry: params.Registry,
		rooms:    params.Rooms,
		notifier: params.Notifier,
		presence: params.Presence,
		logger:   params.Logger,
	}
}

// OnConnect registers nothing: a connection stays anonymous and out of
// presence until the client announces an identity via chat.addUser.
func (l *Lifecycle) OnConnect(conn protocol.ConnectionID) {
	l.logger.Debug("connection opened", slog.String("conn", conn))
}

// OnDisconnect removes conn from the registry and from every room it
// was in, then emits a presence leave for the resolved username. A
// connection that never announced an identity leaves silently.
func (l *Lifecycle) OnDisconnect(conn protocol.ConnectionID) {
	username, bound := l.registry.Unregister(conn)
	affected := l.rooms.LeaveAll(conn)

	if len(affected) > 0 {
		l.notifier.DispatchUpdateRooms()
	}

	if !bound {
		l.logger.Debug("anonymous connection closed", slog.String("conn", conn))
		return
	}

	l.logger.Info("user disconnected",
		slog.String("conn", conn),
		slog.String("user", username),
		slog.Int("rooms", len(affected)))
	l.presence.BroadcastLeave(username)
}

package presence

import (
	"log/slog"

	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/atomic"
	"go.uber.org/fx"
)

type MessageType string

const (
	MessageTypeJoin  MessageType = "JOIN"
	MessageTypeLeave MessageType = "LEAVE"
)

// JoinLeaveMessage announces a presence change together with the full
// set of connected users, so clients never have to diff incremental
// updates against possibly stale local state.
type JoinLeaveMessage struct {
	Sender protocol.Username   `json:"sender"`
	Type   MessageType         `json:"type"`
	Users  []protocol.Username `json:"users"`
}

// Broadcaster recomputes the presence set from the registry on every
// observable change and emits one join/leave event to every registered
// connection. The presence set is derived, never stored, so it cannot
// drift.
type Broadcaster struct {
	registry *registry.Registry
	sender   protocol.Sender
	logger   *slog.Logger

	emitted *atomic.Uint64
}

type NewBroadcasterParams struct {
	fx.In

	Registry *registry.Registry
	Sender   protocol.Sender
	Logger   *slog.Logger
}

func NewBroadcaster(params NewBroadcasterParams) *Broadcaster {
	return &Broadcaster{
		registry: params.Registry,
		sender:   params.Sender,
		logger:   params.Logger,
		emitted:  atomic.NewUint64(0),
	}
}

func (b *Broadcaster) BroadcastJoin(username protocol.Username) {
	b.broadcast(username, MessageTypeJoin, protocol.EventJoin)
}

func (b *Broadcaster) BroadcastLeave(username protocol.Username) {
	b.broadcast(username, MessageTypeLeave, protocol.EventLeave)
}

func (b *Broadcaster) broadcast(username protocol.Username, messageType MessageType, event string) {
	users := b.registry.SnapshotUsernames()
	conns := b.registry.Connections()

	message := JoinLeaveMessage{
		Sender: username,
		Type:   messageType,
		Users:  users,
	}
	for _, conn := range conns {
		b.sender.Send(conn, event, message)
	}
	b.emitted.Inc()

	b.logger.Info("presence change",
		slog.String("user", username),
		slog.String("type", string(messageType)),
		slog.Int("online", len(users)))
}

// EventsEmitted reports how many presence events were broadcast.
func (b *Broadcaster) EventsEmitted() uint64 {
	return b.emitted.Load()
}

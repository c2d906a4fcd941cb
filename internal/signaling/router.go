package signaling

import (
	"encoding/json"
	"log/slog"

	"github.com/supportdesk/signaling-platform/internal/presence"
	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/internal/room"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/atomic"
	"go.uber.org/fx"
)

type HandlerFunc func(conn protocol.ConnectionID, data json.RawMessage)

// Router is the signaling protocol state machine. Inbound events are
// resolved through a dispatch table built once at startup; each
// handler computes its outcome and recipient set against the stores,
// then sends. Stores release their locks before any send happens, so
// no handler ever holds state locks across outbound dispatch.
type Router struct {
	registry *registry.Registry
	rooms    *room.Store
	notifier *room.Notifier
	presence *presence.Broadcaster
	sender   protocol.Sender
	logger   *slog.Logger
	handlers map[string]HandlerFunc
	relayed  *atomic.Uint64
	rejected *atomic.Uint64
}

type NewRouterParams struct {
	fx.In

	Registry *registry.Registry
	Rooms    *room.Store
	Notifier *room.Notifier
	Presence *presence.Broadcaster
	Sender   protocol.Sender
	Logger   *slog.Logger
}

func NewRouter(params NewRouterParams) *Router {
	r := &Router{
		registry: params.Registry,
		rooms:    params.Rooms,
		notifier: params.Notifier,
		presence: params.Presence,
		sender:   params.Sender,
		logger:   params.Logger,
		relayed:  atomic.NewUint64(0),
		rejected: atomic.NewUint64(0),
	}
	r.handlers = map[string]HandlerFunc{
		protocol.EventJoinRoom:        r.onJoinRoom,
		protocol.EventReady:           r.onReady,
		protocol.EventCandidate:       r.onCandidate,
		protocol.EventOffer:           r.onSessionDescription(protocol.EventOffer),
		protocol.EventAnswer:          r.onSessionDescription(protocol.EventAnswer),
		protocol.EventLeaveRoom:       r.onLeaveRoom,
		protocol.EventSignal:          r.onSignal,
		protocol.EventChatAddUser:     r.onChatAddUser,
		protocol.EventChatSendMessage: r.onChatSendMessage,

		protocol.EventSessionStart:      r.relayToPeers(protocol.EventSessionStart),
		protocol.EventEnabledLocalMedia: r.relayToPeers(protocol.EventEnabledLocalMedia),
		protocol.EventToggledMedia:      r.relayToPeers(protocol.EventToggledMedia),
		protocol.EventToggledScreen:     r.relayToPeers(protocol.EventToggledScreen),
	}
	return r
}

// Dispatch routes one inbound event. Unknown event types are a
// protocol violation answered only to the sender; nothing here is ever
// fatal to the process.
func (r *Router) Dispatch(conn protocol.ConnectionID, event string, data json.RawMessage) {
	handler, ok := r.handlers[event]
	if !ok {
		r.reject(conn, event, "unknown event type")
		return
	}
	handler(conn, data)
}

func (r *Router) reject(conn protocol.ConnectionID, event, reason string) {
	r.rejected.Inc()
	r.logger.Warn("rejected message",
		slog.String("conn", conn),
		slog.String("event", event),
		slog.String("reason", reason))
	r.sender.Send(conn, protocol.EventError, ErrorMessage{Message: reason})
}

func (r *Router) onJoinRoom(conn protocol.ConnectionID, data json.RawMessage) {
	var roomID protocol.RoomID
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		r.reject(conn, protocol.EventJoinRoom, room.ErrRoomIDIsEmpty.Error())
		return
	}

	result := r.rooms.Join(roomID, conn)
	switch result.Outcome {
	case room.Created:
		r.sender.Send(conn, protocol.EventCreated, roomID)
	case room.JoinedAsCallee:
		r.sender.Send(conn, protocol.EventJoined, roomID)
		r.sender.Send(conn, protocol.EventSetCaller, result.Caller)
	case room.Full:
		r.sender.Send(conn, protocol.EventFull, roomID)
		return
	}

	r.notifier.DispatchUpdateRooms()
	r.logger.Info("join room",
		slog.String("conn", conn),
		slog.String("room", roomID),
		slog.Int("members", len(r.rooms.Members(roomID))))
}

func (r *Router) onReady(conn protocol.ConnectionID, data json.RawMessage) {
	var roomID protocol.RoomID
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		r.reject(conn, protocol.EventReady, room.ErrRoomIDIsEmpty.Error())
		return
	}
	if !r.rooms.IsMember(roomID, conn) {
		r.reject(conn, protocol.EventReady, "not a room member")
		return
	}
	for _, member := range r.rooms.Members(roomID) {
		r.sender.Send(member, protocol.EventReady, roomID)
	}
}

func (r *Router) onCandidate(conn protocol.ConnectionID, data json.RawMessage) {
	var payload roomScoped
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		r.reject(conn, protocol.EventCandidate, "payload has no room")
		return
	}
	if !r.rooms.IsMember(payload.Room, conn) {
		r.reject(conn, protocol.EventCandidate, "not a room member")
		return
	}
	r.forward(payload.Room, conn, protocol.EventCandidate, data)
}

// onSessionDescription handles offer and answer, which share a shape:
// the sdp blob travels to the other room members untouched.
func (r *Router) onSessionDescription(event string) HandlerFunc {
	return func(conn protocol.ConnectionID, data json.RawMessage) {
		var payload sdpPayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
			r.reject(conn, event, "payload has no room")
			return
		}
		if !r.rooms.IsMember(payload.Room, conn) {
			r.reject(conn, event, "not a room member")
			return
		}
		r.forward(payload.Room, conn, event, payload.SDP)
	}
}

// relayToPeers builds a handler for events the server does not
// interpret at all, it just moves them to the other room members.
func (r *Router) relayToPeers(event string) HandlerFunc {
	return func(conn protocol.ConnectionID, data json.RawMessage) {
		var payload roomScoped
		if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
			r.reject(conn, event, "payload has no room")
			return
		}
		if !r.rooms.IsMember(payload.Room, conn) {
			r.reject(conn, event, "not a room member")
			return
		}
		r.forward(payload.Room, conn, event, data)
	}
}

func (r *Router) forward(roomID protocol.RoomID, from protocol.ConnectionID, event string, payload json.RawMessage) {
	for _, peer := range r.rooms.Peers(roomID, from) {
		r.sender.Send(peer, event, payload)
		r.relayed.Inc()
	}
}

func (r *Router) onLeaveRoom(conn protocol.ConnectionID, data json.RawMessage) {
	var roomID protocol.RoomID
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		r.reject(conn, protocol.EventLeaveRoom, room.ErrRoomIDIsEmpty.Error())
		return
	}
	// Silent to the remaining peer: it learns of absence through the
	// presence leave event when the connection goes away.
	if r.rooms.Leave(roomID, conn) {
		r.notifier.DispatchUpdateRooms()
	}
}

// onSignal dispatches a user-addressed signaling envelope. The sender
// identity comes from the registry, never from the payload, and the
// sender is always stripped from the recipient set so a client listing
// itself cannot create a local echo. Offline recipients are skipped
// silently; signaling is best-effort.
func (r *Router) onSignal(conn protocol.ConnectionID, data json.RawMessage) {
	var message SignalMessage
	if err := json.Unmarshal(data, &message); err != nil {
		r.reject(conn, protocol.EventSignal, "malformed signal payload")
		return
	}
	from, ok := r.registry.UsernameOf(conn)
	if !ok {
		r.reject(conn, protocol.EventSignal, "sender has no identity")
		return
	}
	message.FromUsername = from

	seen := make(map[protocol.Username]struct{}, len(message.ToUsernames))
	for _, recipient := range message.ToUsernames {
		if recipient == from {
			continue
		}
		if _, dup := seen[recipient]; dup {
			continue
		}
		seen[recipient] = struct{}{}

		for _, target := range r.registry.ConnectionsOf(recipient) {
			r.sender.Send(target, protocol.EventSignal, message)
			r.relayed.Inc()
		}
	}
}

func (r *Router) onChatAddUser(conn protocol.ConnectionID, data json.RawMessage) {
	var message ChatMessage
	if err := json.Unmarshal(data, &message); err != nil || message.Sender == "" {
		r.reject(conn, protocol.EventChatAddUser, "sender username is empty")
		return
	}

	r.registry.Register(conn, message.Sender)
	r.presence.BroadcastJoin(message.Sender)
}

func (r *Router) onChatSendMessage(conn protocol.ConnectionID, data json.RawMessage) {
	var message ChatMessage
	if err := json.Unmarshal(data, &message); err != nil {
		r.reject(conn, protocol.EventChatSendMessage, "malformed chat payload")
		return
	}
	sender, ok := r.registry.UsernameOf(conn)
	if !ok {
		r.reject(conn, protocol.EventChatSendMessage, "sender has no identity")
		return
	}
	message.Sender = sender

	for _, target := range r.registry.Connections() {
		r.sender.Send(target, protocol.EventChat, message)
	}
}

// Stats reports relay counters for the health endpoint.
type RouterStats struct {
	Relayed  uint64 `json:"relayed"`
	Rejected uint64 `json:"rejected"`
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		Relayed:  r.relayed.Load(),
		Rejected: r.rejected.Load(),
	}
}

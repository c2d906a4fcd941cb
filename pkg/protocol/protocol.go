package protocol

type (
	ConnectionID = string
	RoomID       = string
	Username     = string
)

// Client -> server events.
const (
	EventJoinRoom        = "joinRoom"
	EventReady           = "ready"
	EventCandidate       = "candidate"
	EventOffer           = "offer"
	EventAnswer          = "answer"
	EventLeaveRoom       = "leaveRoom"
	EventSignal          = "signal"
	EventChatAddUser     = "chat.addUser"
	EventChatSendMessage = "chat.sendMessage"
)

// Room relay events forwarded verbatim to the other room members.
const (
	EventSessionStart      = "webrtc-session-start"
	EventEnabledLocalMedia = "enabled-local-media"
	EventToggledMedia      = "toggled-media"
	EventToggledScreen     = "toggled-screen-share"
)

// Server -> client events.
const (
	EventCreated   = "created"
	EventJoined    = "joined"
	EventSetCaller = "setCaller"
	EventFull      = "full"
	EventJoin      = "join"
	EventLeave     = "leave"
	EventChat      = "chat"
	EventRoomList  = "room-list"
	EventError     = "error"
)

// Sender delivers an event to a single live connection. Delivery is
// best-effort: unknown connections are skipped. Implementations must
// only enqueue, never block on network I/O, so the core may call Send
// right after releasing its state locks.
type Sender interface {
	Send(conn ConnectionID, event string, payload any)
}

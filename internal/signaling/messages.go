package signaling

import (
	"encoding/json"

	"github.com/supportdesk/signaling-platform/pkg/protocol"
)

// Envelope is the wire frame for every websocket message in both
// directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ChatMessage struct {
	Message string            `json:"message"`
	Sender  protocol.Username `json:"sender"`
	Type    string            `json:"type,omitempty"`
}

// SignalMessage is the user-addressed signaling envelope. Content is
// an opaque negotiation blob (SDP or ICE candidate) relayed without
// interpretation. FromUsername is always overwritten from the registry
// before dispatch; the client-supplied value is never trusted.
type SignalMessage struct {
	Type         string              `json:"type"`
	FromUsername protocol.Username   `json:"fromUsername"`
	Content      json.RawMessage     `json:"content"`
	ToUsernames  []protocol.Username `json:"toUsernames"`
}

// sdpPayload is the room-addressed offer/answer shape. Only the sdp
// part is forwarded to the peer, matching what callees expect.
type sdpPayload struct {
	Room protocol.RoomID `json:"room"`
	SDP  json.RawMessage `json:"sdp"`
}

// roomScoped extracts the room id out of any room-addressed payload
// whose remainder is relayed verbatim.
type roomScoped struct {
	Room protocol.RoomID `json:"room"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

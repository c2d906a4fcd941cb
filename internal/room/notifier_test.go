package room

import (
	"sync"
	"testing"

	"github.com/supportdesk/signaling-platform/pkg/protocol"
)

type recordedSend struct {
	Conn    protocol.ConnectionID
	Event   string
	Payload any
}

type recordingSender struct {
	mu    sync.Mutex
	sends []recordedSend
}

func (s *recordingSender) Send(conn protocol.ConnectionID, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, recordedSend{Conn: conn, Event: event, Payload: payload})
}

func (s *recordingSender) sent() []recordedSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedSend(nil), s.sends...)
}

func TestNotifierPushesInitialList(t *testing.T) {
	store := NewStore()
	store.Join("r1", "c1")
	sender := &recordingSender{}
	n := NewNotifier(store, sender)

	n.Listen("lobby1")

	sends := sender.sent()
	if len(sends) != 1 || sends[0].Event != protocol.EventRoomList {
		t.Fatalf("sends = %v; want one initial room-list", sends)
	}
}

func TestNotifierFanout(t *testing.T) {
	store := NewStore()
	sender := &recordingSender{}
	n := NewNotifier(store, sender)

	n.Listen("lobby1")
	n.Listen("lobby2")
	n.Stop("lobby2")

	store.Join("r1", "c1")
	n.DispatchUpdateRooms()

	var updates []recordedSend
	for _, s := range sender.sent()[2:] { // skip the two initial pushes
		updates = append(updates, s)
	}
	if len(updates) != 1 || updates[0].Conn != "lobby1" {
		t.Fatalf("updates = %v; want one update to lobby1 only", updates)
	}
	list, ok := updates[0].Payload.([]RoomInfo)
	if !ok || len(list) != 1 || list[0].RoomName != "r1" {
		t.Fatalf("payload = %v; want room list with r1", updates[0].Payload)
	}
}

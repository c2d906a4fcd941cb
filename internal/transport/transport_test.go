package transport

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"github.com/supportdesk/signaling-platform/internal/presence"
	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/internal/room"
	"github.com/supportdesk/signaling-platform/internal/signaling"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.Default()
	hub := NewHub(NewHubParams{Logger: logger})
	reg := registry.NewRegistry()
	store := room.NewStore()
	notifier := room.NewNotifier(store, hub)
	broadcaster := presence.NewBroadcaster(presence.NewBroadcasterParams{
		Registry: reg,
		Sender:   hub,
		Logger:   logger,
	})
	router := signaling.NewRouter(signaling.NewRouterParams{
		Registry: reg,
		Rooms:    store,
		Notifier: notifier,
		Presence: broadcaster,
		Sender:   hub,
		Logger:   logger,
	})
	lifecycle := signaling.NewLifecycle(signaling.NewLifecycleParams{
		Registry: reg,
		Rooms:    store,
		Notifier: notifier,
		Presence: broadcaster,
		Logger:   logger,
	})

	controller := NewWsController(newWsController_Params{
		Hub:       hub,
		Router:    router,
		Lifecycle: lifecycle,
		Notifier:  notifier,
		Logger:    logger,
	})

	e := echo.New()
	if err := controller.Resolve(e); err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(signaling.Envelope{Event: event, Data: payload}); err != nil {
		t.Fatal(err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) signaling.Envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var envelope signaling.Envelope
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	return envelope
}

func receiveEvent(t *testing.T, conn *websocket.Conn, event string) signaling.Envelope {
	t.Helper()

	envelope := receive(t, conn)
	if envelope.Event != event {
		t.Fatalf("event = %q; want %q (data %s)", envelope.Event, event, envelope.Data)
	}
	return envelope
}

func TestSignalingExchangeOverWebsocket(t *testing.T) {
	server := newTestServer(t)

	connA := dial(t, server, "/ws")
	send(t, connA, protocol.EventJoinRoom, "r1")
	receiveEvent(t, connA, protocol.EventCreated)

	connB := dial(t, server, "/ws")
	send(t, connB, protocol.EventJoinRoom, "r1")
	receiveEvent(t, connB, protocol.EventJoined)
	receiveEvent(t, connB, protocol.EventSetCaller)

	send(t, connB, protocol.EventOffer, map[string]any{"room": "r1", "sdp": "x"})
	offer := receiveEvent(t, connA, protocol.EventOffer)

	var sdp string
	if err := json.Unmarshal(offer.Data, &sdp); err != nil || sdp != "x" {
		t.Fatalf("offer data = %s; want \"x\"", offer.Data)
	}

	send(t, connA, protocol.EventAnswer, map[string]any{"room": "r1", "sdp": "y"})
	answer := receiveEvent(t, connB, protocol.EventAnswer)
	if err := json.Unmarshal(answer.Data, &sdp); err != nil || sdp != "y" {
		t.Fatalf("answer data = %s; want \"y\"", answer.Data)
	}
}

func TestRoomFullDeliveredToThirdClientOnly(t *testing.T) {
	server := newTestServer(t)

	connA := dial(t, server, "/ws")
	send(t, connA, protocol.EventJoinRoom, "r1")
	receiveEvent(t, connA, protocol.EventCreated)

	connB := dial(t, server, "/ws")
	send(t, connB, protocol.EventJoinRoom, "r1")
	receiveEvent(t, connB, protocol.EventJoined)
	receiveEvent(t, connB, protocol.EventSetCaller)

	connC := dial(t, server, "/ws")
	send(t, connC, protocol.EventJoinRoom, "r1")
	receiveEvent(t, connC, protocol.EventFull)
}

func TestPresenceOverWebsocket(t *testing.T) {
	server := newTestServer(t)

	connA := dial(t, server, "/ws")
	send(t, connA, protocol.EventChatAddUser, signaling.ChatMessage{Sender: "alice"})
	receiveEvent(t, connA, protocol.EventJoin)

	connB := dial(t, server, "/ws")
	send(t, connB, protocol.EventChatAddUser, signaling.ChatMessage{Sender: "bob"})
	receiveEvent(t, connB, protocol.EventJoin)

	// alice sees bob arrive.
	join := receiveEvent(t, connA, protocol.EventJoin)
	var joinMessage presence.JoinLeaveMessage
	if err := json.Unmarshal(join.Data, &joinMessage); err != nil {
		t.Fatal(err)
	}
	if joinMessage.Sender != "bob" || len(joinMessage.Users) != 2 {
		t.Fatalf("join = %+v; want bob with 2 users online", joinMessage)
	}

	// alice disconnects, bob sees the leave with the shrunken set.
	connA.Close()
	leave := receiveEvent(t, connB, protocol.EventLeave)
	var leaveMessage presence.JoinLeaveMessage
	if err := json.Unmarshal(leave.Data, &leaveMessage); err != nil {
		t.Fatal(err)
	}
	if leaveMessage.Sender != "alice" || len(leaveMessage.Users) != 1 || leaveMessage.Users[0] != "bob" {
		t.Fatalf("leave = %+v; want alice gone, bob online", leaveMessage)
	}
}

func TestRoomListLobbyUpdates(t *testing.T) {
	server := newTestServer(t)

	lobby := dial(t, server, "/ws/rooms")
	initial := receiveEvent(t, lobby, protocol.EventRoomList)
	var rooms []room.RoomInfo
	if err := json.Unmarshal(initial.Data, &rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 0 {
		t.Fatalf("initial rooms = %v; want none", rooms)
	}

	connA := dial(t, server, "/ws")
	send(t, connA, protocol.EventJoinRoom, "r1")
	receiveEvent(t, connA, protocol.EventCreated)

	update := receiveEvent(t, lobby, protocol.EventRoomList)
	if err := json.Unmarshal(update.Data, &rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].RoomName != "r1" || rooms[0].IsFull {
		t.Fatalf("rooms = %v; want open r1", rooms)
	}
}

package transport

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/supportdesk/signaling-platform/internal/signaling"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/atomic"
	"go.uber.org/fx"
)

// Hub tracks live websocket clients and implements protocol.Sender on
// top of their outbound queues. Send only enqueues; the per-client
// write pump does the actual network I/O, so callers may hold no locks
// and never block on a slow peer.
type Hub struct {
	mu      sync.RWMutex
	clients map[protocol.ConnectionID]*Client

	logger  *slog.Logger
	dropped *atomic.Uint64
}

type NewHubParams struct {
	fx.In

	Logger *slog.Logger
}

func NewHub(params NewHubParams) *Hub {
	return &Hub{
		clients: make(map[protocol.ConnectionID]*Client),
		logger:  params.Logger,
		dropped: atomic.NewUint64(0),
	}
}

func (h *Hub) Add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Remove(conn protocol.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Send delivers event to conn best-effort. Unknown connections are
// skipped: the recipient may have vanished between recipient
// resolution and dispatch, which is normal churn, not an error.
func (h *Hub) Send(conn protocol.ConnectionID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal outbound payload",
			slog.String("event", event),
			slog.String("err", err.Error()))
		return
	}

	h.mu.RLock()
	client := h.clients[conn]
	h.mu.RUnlock()
	if client == nil {
		return
	}

	if !client.enqueue(signaling.Envelope{Event: event, Data: data}) {
		h.dropped.Inc()
	}
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped reports envelopes lost to queue-overflow disconnects.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

var _ protocol.Sender = (*Hub)(nil)

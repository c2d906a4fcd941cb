package room

import (
	"sync"

	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// Notifier pushes the room list to subscribed connections whenever
// membership changes, so lobby clients can render open rooms live.
type Notifier struct {
	mu        sync.Mutex
	listeners map[protocol.ConnectionID]struct{}

	store  *Store
	sender protocol.Sender
}

func NewNotifier(store *Store, sender protocol.Sender) *Notifier {
	return &Notifier{
		listeners: make(map[protocol.ConnectionID]struct{}),
		store:     store,
		sender:    sender,
	}
}

// Listen subscribes conn and immediately pushes the current list.
func (n *Notifier) Listen(conn protocol.ConnectionID) {
	n.mu.Lock()
	n.listeners[conn] = struct{}{}
	n.mu.Unlock()

	n.sender.Send(conn, protocol.EventRoomList, n.store.List())
}

func (n *Notifier) Stop(conn protocol.ConnectionID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, conn)
}

// DispatchUpdateRooms fans the current room list out to every
// listener. The list is snapshotted once; sends only enqueue, so the
// fanout never blocks on a slow peer.
func (n *Notifier) DispatchUpdateRooms() {
	n.mu.Lock()
	listeners := make([]protocol.ConnectionID, 0, len(n.listeners))
	for conn := range n.listeners {
		listeners = append(listeners, conn)
	}
	n.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	list := n.store.List()

	var group errgroup.Group
	for _, conn := range listeners {
		conn := conn
		group.Go(func() error {
			n.sender.Send(conn, protocol.EventRoomList, list)
			return nil
		})
	}
	group.Wait()
}

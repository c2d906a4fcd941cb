package room

import (
	"errors"
	"sync"

	"github.com/supportdesk/signaling-platform/pkg/protocol"
)

var ErrRoomIDIsEmpty = errors.New("room id is empty")

const maxMembers = 2

// JoinOutcome reports what happened on a join attempt.
type JoinOutcome int

const (
	// Created: the sender opened the room and is the caller.
	Created JoinOutcome = iota
	// JoinedAsCallee: the sender joined an existing one-member room.
	JoinedAsCallee
	// Full: the room has two members already, or the sender is
	// re-joining a room it is in. No mutation happened.
	Full
)

// JoinResult carries the outcome and, for JoinedAsCallee, the caller
// the new member should negotiate with.
type JoinResult struct {
	Outcome JoinOutcome
	Caller  protocol.ConnectionID
}

type RoomInfo struct {
	RoomName string `json:"roomName"`
	IsFull   bool   `json:"isFull"`
}

// Store owns all room membership state. Rooms hold at most two
// connections in insertion order: the earliest-joined live member is
// the caller. Empty rooms are deleted, never kept around.
type Store struct {
	mu    sync.Mutex
	rooms map[protocol.RoomID][]protocol.ConnectionID
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[protocol.RoomID][]protocol.ConnectionID),
	}
}

// Join adds conn to room per the capacity rule. The whole decision,
// including which member is the caller, is taken under the lock so
// concurrent joins to the same room serialize into exactly one
// Created and one JoinedAsCallee.
func (s *Store) Join(room protocol.RoomID, conn protocol.ConnectionID) JoinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.rooms[room]
	switch {
	case len(members) == 0:
		s.rooms[room] = []protocol.ConnectionID{conn}
		return JoinResult{Outcome: Created}
	case len(members) == 1 && members[0] != conn:
		s.rooms[room] = append(members, conn)
		return JoinResult{Outcome: JoinedAsCallee, Caller: members[0]}
	default:
		return JoinResult{Outcome: Full}
	}
}

// Leave removes conn from room, deleting the room once empty. Leaving
// a room the connection is not in is a no-op. Reports whether
// membership changed.
func (s *Store) Leave(room protocol.RoomID, conn protocol.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.leaveLocked(room, conn)
}

func (s *Store) leaveLocked(room protocol.RoomID, conn protocol.ConnectionID) bool {
	members, ok := s.rooms[room]
	if !ok {
		return false
	}
	for i, member := range members {
		if member != conn {
			continue
		}
		members = append(members[:i], members[i+1:]...)
		if len(members) == 0 {
			delete(s.rooms, room)
		} else {
			s.rooms[room] = members
		}
		return true
	}
	return false
}

// LeaveAll removes conn from every room it belongs to and returns the
// affected room ids. Used on disconnect.
func (s *Store) LeaveAll(conn protocol.ConnectionID) []protocol.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected []protocol.RoomID
	for room, members := range s.rooms {
		for _, member := range members {
			if member == conn {
				affected = append(affected, room)
				break
			}
		}
	}
	for _, room := range affected {
		s.leaveLocked(room, conn)
	}
	return affected
}

// Peers returns the other members of room, excluding conn.
func (s *Store) Peers(room protocol.RoomID, excluding protocol.ConnectionID) []protocol.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var peers []protocol.ConnectionID
	for _, member := range s.rooms[room] {
		if member != excluding {
			peers = append(peers, member)
		}
	}
	return peers
}

// Members returns the current membership of room in join order.
func (s *Store) Members(room protocol.RoomID) []protocol.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.rooms[room]
	result := make([]protocol.ConnectionID, len(members))
	copy(result, members)
	return result
}

func (s *Store) IsMember(room protocol.RoomID, conn protocol.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, member := range s.rooms[room] {
		if member == conn {
			return true
		}
	}
	return false
}

// List reports every live room and whether it is at capacity.
func (s *Store) List() []RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RoomInfo, 0, len(s.rooms))
	for room, members := range s.rooms {
		result = append(result, RoomInfo{
			RoomName: room,
			IsFull:   len(members) >= maxMembers,
		})
	}
	return result
}

package room

import (
	"fmt"
	"sync"
	"testing"
)

func TestJoinSequence(t *testing.T) {
	s := NewStore()

	if res := s.Join("r1", "c1"); res.Outcome != Created {
		t.Fatalf("first join outcome = %v; want Created", res.Outcome)
	}
	if res := s.Join("r1", "c2"); res.Outcome != JoinedAsCallee || res.Caller != "c1" {
		t.Fatalf("second join = %+v; want JoinedAsCallee with caller c1", res)
	}
	if res := s.Join("r1", "c3"); res.Outcome != Full {
		t.Fatalf("third join outcome = %v; want Full", res.Outcome)
	}

	members := s.Members("r1")
	if len(members) != 2 || members[0] != "c1" || members[1] != "c2" {
		t.Fatalf("membership = %v; want [c1 c2]", members)
	}
}

func TestRejoinSameRoomIsFull(t *testing.T) {
	s := NewStore()
	s.Join("r1", "c1")

	if res := s.Join("r1", "c1"); res.Outcome != Full {
		t.Fatalf("re-join outcome = %v; want Full", res.Outcome)
	}
	if got := len(s.Members("r1")); got != 1 {
		t.Fatalf("re-join mutated the room: %d members", got)
	}
}

func TestLeavePromotesRemainingMember(t *testing.T) {
	s := NewStore()
	s.Join("r1", "cA")
	s.Join("r1", "cB")

	s.Leave("r1", "cA")

	// cB is now the earliest-joined live member, so a newcomer must
	// join as callee against cB, not re-create the room.
	res := s.Join("r1", "cC")
	if res.Outcome != JoinedAsCallee || res.Caller != "cB" {
		t.Fatalf("join after caller left = %+v; want JoinedAsCallee with caller cB", res)
	}
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	s := NewStore()
	s.Join("r1", "c1")

	if changed := s.Leave("r1", "c1"); !changed {
		t.Fatal("leave of sole member must report a change")
	}
	if got := len(s.List()); got != 0 {
		t.Fatalf("empty room must be deleted, %d rooms left", got)
	}
	// Leaving a room you are not in is a no-op.
	if changed := s.Leave("r1", "c1"); changed {
		t.Fatal("leave of absent member must be a no-op")
	}
}

func TestLeaveAll(t *testing.T) {
	s := NewStore()
	s.Join("r1", "c1")
	s.Join("r2", "c1")
	s.Join("r2", "c2")

	affected := s.LeaveAll("c1")
	if len(affected) != 2 {
		t.Fatalf("LeaveAll affected %v; want 2 rooms", affected)
	}
	for _, room := range []string{"r1", "r2"} {
		if s.IsMember(room, "c1") {
			t.Fatalf("c1 still member of %s", room)
		}
	}
	if !s.IsMember("r2", "c2") {
		t.Fatal("c2 must survive c1's unwind")
	}
	if s.LeaveAll("c1") != nil {
		t.Fatal("second LeaveAll must affect nothing")
	}
}

func TestPeersExcludesSelf(t *testing.T) {
	s := NewStore()
	s.Join("r1", "c1")
	s.Join("r1", "c2")

	peers := s.Peers("r1", "c2")
	if len(peers) != 1 || peers[0] != "c1" {
		t.Fatalf("Peers = %v; want [c1]", peers)
	}
	if got := s.Peers("unknown", "c1"); got != nil {
		t.Fatalf("Peers of unknown room = %v; want none", got)
	}
}

func TestListReportsFullness(t *testing.T) {
	s := NewStore()
	s.Join("r1", "c1")
	s.Join("r2", "c2")
	s.Join("r2", "c3")

	byName := map[string]bool{}
	for _, info := range s.List() {
		byName[info.RoomName] = info.IsFull
	}
	if full, ok := byName["r1"]; !ok || full {
		t.Fatalf("r1 = full:%v present:%v; want open room", full, ok)
	}
	if full, ok := byName["r2"]; !ok || !full {
		t.Fatalf("r2 = full:%v present:%v; want full room", full, ok)
	}
}

func TestConcurrentJoinLinearizable(t *testing.T) {
	for round := 0; round < 50; round++ {
		s := NewStore()

		results := make([]JoinResult, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.Join("shared", fmt.Sprintf("c%d", i))
			}(i)
		}
		wg.Wait()

		var created, callee int
		for _, res := range results {
			switch res.Outcome {
			case Created:
				created++
			case JoinedAsCallee:
				callee++
			}
		}
		if created != 1 || callee != 1 {
			t.Fatalf("round %d: created=%d callee=%d; want exactly one of each", round, created, callee)
		}
		if got := len(s.Members("shared")); got != 2 {
			t.Fatalf("round %d: lost update, %d members", round, got)
		}
	}
}

package gateway

import (
	"sync"
)

// RoomTracker holds the ephemeral room -> connection sets. This is a routing
// index only; authorization lives in the persisted membership relation.
// Every conn id in a set should be a live connection — that invariant is
// eventually consistent, repaired by the reconciler.
type RoomTracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room_id -> set of conn_id
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{rooms: make(map[string]map[string]struct{})}
}

func (t *RoomTracker) Join(roomID, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.rooms[roomID]
	if set == nil {
		set = make(map[string]struct{})
		t.rooms[roomID] = set
	}
	set[connID] = struct{}{}
}

// Leave removes connID from the room, dropping the room entry once empty.
func (t *RoomTracker) Leave(roomID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.rooms[roomID]
	if set == nil {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

func (t *RoomTracker) Contains(roomID, connID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rooms[roomID][connID]
	return ok
}

// Snapshot returns the room's conn ids at this instant.
func (t *RoomTracker) Snapshot(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.rooms[roomID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (t *RoomTracker) Rooms() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.rooms))
	for id := range t.rooms {
		out = append(out, id)
	}
	return out
}

// RoomsOf returns the rooms connID is tracked in (disconnect cleanup path).
func (t *RoomTracker) RoomsOf(connID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for roomID, set := range t.rooms {
		if _, ok := set[connID]; ok {
			out = append(out, roomID)
		}
	}
	return out
}

// RemoveConn drops connID from every room and returns the affected rooms.
func (t *RoomTracker) RemoveConn(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var affected []string
	for roomID, set := range t.rooms {
		if _, ok := set[connID]; !ok {
			continue
		}
		delete(set, connID)
		if len(set) == 0 {
			delete(t.rooms, roomID)
		}
		affected = append(affected, roomID)
	}
	return affected
}

// Replace swaps the room's set wholesale (reconciler read-then-replace).
// Mutations racing the read both survive: the next set is keep intersected
// with the current members (a leave since the read stays left) unioned with
// members added since the read (a join since the read stays joined).
func (t *RoomTracker) Replace(roomID string, read, keep []string) {
	readSet := make(map[string]struct{}, len(read))
	for _, id := range read {
		readSet[id] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.rooms[roomID]
	next := make(map[string]struct{}, len(cur))
	for _, id := range keep {
		if _, still := cur[id]; still {
			next[id] = struct{}{}
		}
	}
	for id := range cur {
		if _, seen := readSet[id]; !seen {
			next[id] = struct{}{}
		}
	}
	if len(next) == 0 {
		delete(t.rooms, roomID)
		return
	}
	t.rooms[roomID] = next
}

func (t *RoomTracker) Count(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[roomID])
}

package runtime

import (
	"bounty-lab/domain"
	"sync"

	"github.com/samber/lo"
)

type Set[T comparable] map[T]struct{}

type roomShard struct {
	mu      sync.RWMutex
	members map[domain.RoomID]Set[domain.ConnectionID]
}

type connShard struct {
	mu    sync.Mutex
	rooms map[domain.ConnectionID]Set[domain.RoomID]
}

// Registry maps rooms to the connections watching them.
//
// Rooms and connections are spread over independent shards, so membership
// changes in one room never wait on an unrelated room. A reverse index
// (connection -> rooms) keeps DropConnection bounded by the number of rooms
// the connection actually joined.
//
// Lock order is always connection shard, then room shard.
type Registry struct {
	roomShards []*roomShard
	connShards []*connShard
}

func NewRegistry(shardCount int) *Registry {
	n := normalizeShardCount(shardCount)
	r := &Registry{
		roomShards: make([]*roomShard, n),
		connShards: make([]*connShard, n),
	}
	for i := 0; i < n; i++ {
		r.roomShards[i] = &roomShard{members: make(map[domain.RoomID]Set[domain.ConnectionID])}
		r.connShards[i] = &connShard{rooms: make(map[domain.ConnectionID]Set[domain.RoomID])}
	}
	return r
}

func (r *Registry) roomShardOf(roomID domain.RoomID) *roomShard {
	return r.roomShards[shardIndex(string(roomID), len(r.roomShards))]
}

func (r *Registry) connShardOf(connID domain.ConnectionID) *connShard {
	return r.connShards[shardIndex(string(connID), len(r.connShards))]
}

// Join adds the connection to the room. Joining twice is a no-op.
func (r *Registry) Join(roomID domain.RoomID, connID domain.ConnectionID) {
	cs := r.connShardOf(connID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	rooms, ok := cs.rooms[connID]
	if !ok {
		rooms = make(Set[domain.RoomID])
		cs.rooms[connID] = rooms
	}
	rooms[roomID] = struct{}{}

	rs := r.roomShardOf(roomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	members, ok := rs.members[roomID]
	if !ok {
		members = make(Set[domain.ConnectionID])
		rs.members[roomID] = members
	}
	members[connID] = struct{}{}
}

// Leave removes the connection from the room, if present.
func (r *Registry) Leave(roomID domain.RoomID, connID domain.ConnectionID) {
	cs := r.connShardOf(connID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if rooms, ok := cs.rooms[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(cs.rooms, connID)
		}
	}
	r.removeMember(roomID, connID)
}

// DropConnection removes the connection from every room it joined
// and returns those rooms. Safe for connections that never joined anything.
func (r *Registry) DropConnection(connID domain.ConnectionID) []domain.RoomID {
	cs := r.connShardOf(connID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	rooms, ok := cs.rooms[connID]
	if !ok {
		return nil
	}
	delete(cs.rooms, connID)
	for roomID := range rooms {
		r.removeMember(roomID, connID)
	}
	return lo.Keys(rooms)
}

// removeMember must be called with the connection shard held.
func (r *Registry) removeMember(roomID domain.RoomID, connID domain.ConnectionID) {
	rs := r.roomShardOf(roomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if members, ok := rs.members[roomID]; ok {
		delete(members, connID)
		// No empty sets left behind
		if len(members) == 0 {
			delete(rs.members, roomID)
		}
	}
}

// MembersOf returns a copy of the room members, nil for an empty room.
func (r *Registry) MembersOf(roomID domain.RoomID) []domain.ConnectionID {
	rs := r.roomShardOf(roomID)
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	members, ok := rs.members[roomID]
	if !ok {
		return nil
	}
	return lo.Keys(members)
}

func (r *Registry) CountOf(roomID domain.RoomID) int {
	rs := r.roomShardOf(roomID)
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.members[roomID])
}

package runtime

import (
	"bounty-lab/contract"
	"bounty-lab/domain"
	"bounty-lab/domain/event"
	"bounty-lab/errors"
	"context"
	"fmt"
	"sync"
)

type connectionShard struct {
	mu    sync.RWMutex
	sinks map[domain.ConnectionID]contract.EventSink
}

// ConnectionTable owns the outbound sink of every connected viewer.
// It is the ITransport used by the dispatcher.
type ConnectionTable struct {
	shards []*connectionShard
}

func NewConnectionTable(shardCount int) *ConnectionTable {
	n := normalizeShardCount(shardCount)
	t := &ConnectionTable{shards: make([]*connectionShard, n)}
	for i := range t.shards {
		t.shards[i] = &connectionShard{sinks: make(map[domain.ConnectionID]contract.EventSink)}
	}
	return t
}

func (t *ConnectionTable) shardOf(connID domain.ConnectionID) *connectionShard {
	return t.shards[shardIndex(string(connID), len(t.shards))]
}

// Attach returns false when the id is already connected.
func (t *ConnectionTable) Attach(connID domain.ConnectionID, sink contract.EventSink) bool {
	s := t.shardOf(connID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sinks[connID]; ok {
		return false
	}
	s.sinks[connID] = sink
	return true
}

// Detach returns false when the id was not connected.
// Once it returns, no WithConnection callback for this id is running or will run.
func (t *ConnectionTable) Detach(connID domain.ConnectionID) bool {
	s := t.shardOf(connID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sinks[connID]; !ok {
		return false
	}
	delete(s.sinks, connID)
	return true
}

// WithConnection runs fn while the connection is guaranteed to stay attached.
// Membership changes go through here so a concurrent disconnect cannot leave
// a dangling membership behind.
func (t *ConnectionTable) WithConnection(connID domain.ConnectionID, fn func() error) error {
	s := t.shardOf(connID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sinks[connID]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}
	return fn()
}

// Send hands the event to the connection sink.
// The shard lock is released before the sink is called, so a slow viewer never
// holds up connects and disconnects of its neighbours.
func (t *ConnectionTable) Send(ctx context.Context, connID domain.ConnectionID, e event.DomainEvent) error {
	s := t.shardOf(connID)
	s.mu.RLock()
	sink, ok := s.sinks[connID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}
	return sink.Consume(ctx, e)
}

func (t *ConnectionTable) Count() int {
	total := 0
	for _, s := range t.shards {
		s.mu.RLock()
		total += len(s.sinks)
		s.mu.RUnlock()
	}
	return total
}

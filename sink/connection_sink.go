package sink

import (
	"bounty-lab/domain/event"
	"bounty-lab/errors"
	"context"
	"sync"
)

// ConnectionSink is the send queue of one viewer connection.
// The dispatcher enqueues through Consume; the transport write pump drains Events.
type ConnectionSink struct {
	events    chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume enqueues without waiting. A viewer whose queue is full is too slow
// to keep up: the sink is closed so the transport drops the socket, and the
// viewer resynchronizes from the join snapshot after reconnecting.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case s.events <- e:
		return nil
	default:
		s.Close()
		return errors.ErrSendBufferFull
	}
}

func (s *ConnectionSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Done is closed once the connection is gone.
func (s *ConnectionSink) Done() <-chan struct{} {
	return s.done
}

// Close is idempotent. The events channel is never closed so a late Consume cannot panic.
func (s *ConnectionSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

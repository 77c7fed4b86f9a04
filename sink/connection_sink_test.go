package sink_test

import (
	"bounty-lab/domain/event"
	"bounty-lab/errors"
	"bounty-lab/sink"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectionSink_Consume_Enqueues(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnectionSink(2)
	evt := event.TimerUpdated{Room: "alpha", LastActivity: time.Now()}

	req.NoError(s.Consume(context.Background(), evt))

	select {
	case got := <-s.Events():
		req.Equal(evt, got)
	default:
		req.Fail("Event was not enqueued")
	}
}

func TestConnectionSink_Full_Queue_Evicts_Slow_Viewer(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnectionSink(1)
	evt := event.TimerUpdated{Room: "alpha", LastActivity: time.Now()}

	// Given a queue nobody drains
	req.NoError(s.Consume(context.Background(), evt))

	// When another event arrives
	start := time.Now()
	err := s.Consume(context.Background(), evt)

	// Then it fails at once and the sink is closed
	req.ErrorIs(err, errors.ErrSendBufferFull)
	req.Less(time.Since(start), 100*time.Millisecond)
	req.Len(s.Events(), 1)
	select {
	case <-s.Done():
	default:
		req.Fail("Done should be closed")
	}
	req.ErrorIs(s.Consume(context.Background(), evt), errors.ErrConnectionClosed)
}

func TestConnectionSink_Closed(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnectionSink(1)

	s.Close()
	s.Close()

	err := s.Consume(context.Background(), event.TimerUpdated{Room: "alpha"})
	req.ErrorIs(err, errors.ErrConnectionClosed)
	select {
	case <-s.Done():
	default:
		req.Fail("Done should be closed")
	}
}

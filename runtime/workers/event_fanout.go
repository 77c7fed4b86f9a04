package workers

import (
	"bounty-lab/contract"
	"bounty-lab/domain"
	"bounty-lab/domain/event"
	"bounty-lab/errors"
	"bounty-lab/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// EventFanout broadcasts room events to the connections currently watching the room.
//
// It provides best-effort, at-most-once delivery with no retries and no replay:
// a room without members simply drops the event. Events are state snapshots,
// so the next event or the join-time snapshot heals any loss.
//
// Publishing never blocks the caller. Rooms are hashed onto lanes, each with its
// own queue and goroutine: events of one room stay in order, and a slow room only
// delays the rooms sharing its lane.
type EventFanout struct {
	log             *slog.Logger
	registry        contract.IRegistry
	transport       contract.ITransport
	metrics         *observability.Metrics
	lanes           []chan event.DomainEvent
	deliveryTimeout time.Duration
}

// NewEventFanout allocates laneCount queues of bufferSize events each.
func NewEventFanout(log *slog.Logger, registry contract.IRegistry, transport contract.ITransport,
	metrics *observability.Metrics, bufferSize, laneCount int, deliveryTimeout time.Duration) *EventFanout {
	if laneCount <= 0 {
		laneCount = 1
	}
	lanes := make([]chan event.DomainEvent, laneCount)
	for i := range lanes {
		lanes[i] = make(chan event.DomainEvent, bufferSize)
	}
	return &EventFanout{
		log:             log,
		registry:        registry,
		transport:       transport,
		metrics:         metrics,
		lanes:           lanes,
		deliveryTimeout: deliveryTimeout,
	}
}

func (w *EventFanout) laneOf(roomID domain.RoomID) int {
	return int(xxhash.Sum64String(string(roomID)) % uint64(len(w.lanes)))
}

func (w *EventFanout) PublishTimerUpdate(roomID domain.RoomID, lastActivity time.Time) {
	w.publish(event.TimerUpdated{Room: roomID, LastActivity: lastActivity})
}

func (w *EventFanout) PublishPoolUpdate(roomID domain.RoomID, depositAmount domain.Amount,
	depositorDisplayName string, newPoolTotal domain.Amount, viewerCount int, at time.Time) {
	w.publish(event.PoolUpdated{
		Room:                 roomID,
		DepositAmount:        depositAmount,
		DepositorDisplayName: depositorDisplayName,
		NewPoolTotal:         newPoolTotal,
		ViewerCount:          viewerCount,
		At:                   at,
	})
}

func (w *EventFanout) PublishViewerCount(roomID domain.RoomID, viewerCount int) {
	w.publish(event.ViewerCountUpdated{Room: roomID, ViewerCount: viewerCount})
}

func (w *EventFanout) publish(evt event.DomainEvent) {
	select {
	case w.lanes[w.laneOf(evt.RoomID())] <- evt:
	default:
		w.metrics.EventDropped()
		w.log.Warn("Event channel full, dropping event", "room", evt.RoomID(), "type", evt.Type())
	}
}

// QueueLen and QueueCap expose the pending events of every lane to the capacity sampler.
func (w *EventFanout) QueueLen() int {
	total := 0
	for _, lane := range w.lanes {
		total += len(lane)
	}
	return total
}

func (w *EventFanout) QueueCap() int {
	total := 0
	for _, lane := range w.lanes {
		total += cap(lane)
	}
	return total
}

// Run drains every lane until ctx is done.
// A panic in one lane stops all of them and is returned so the supervisor restarts the worker.
func (w *EventFanout) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	panics := make(chan error, len(w.lanes))
	var wg sync.WaitGroup
	for i, lane := range w.lanes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- fmt.Errorf("%w: fanout lane %d: %v", errors.ErrWorkerPanic, i, r)
				}
			}()
			w.drain(ctx, lane)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		w.log.Debug("Context done, stopping event fanout")
	case err = <-panics:
		cancel()
	}
	wg.Wait()
	return err
}

func (w *EventFanout) drain(ctx context.Context, lane <-chan event.DomainEvent) {
	for {
		select {
		case evt := <-lane:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			return
		}
	}
}

// Fanout delivers one event to every member of its room.
// A failing member is logged and never aborts delivery to the others.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	members := w.registry.MembersOf(evt.RoomID())
	if len(members) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, connID := range members {
		wg.Add(1)
		go func(connID domain.ConnectionID) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					w.metrics.DeliveryFailed()
					w.log.Error("Delivery panicked", "room", evt.RoomID(), "connection", connID, "panic", r)
				}
			}()
			sendCtx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
			defer cancel()
			if err := w.transport.Send(sendCtx, connID, evt); err != nil {
				w.metrics.DeliveryFailed()
				w.log.Debug("Delivery failed", "room", evt.RoomID(), "connection", connID, "type", evt.Type(), "error", err)
				return
			}
			w.metrics.Delivered()
		}(connID)
	}
	// Waiting keeps events of a room in order for each member
	wg.Wait()
}

package runtime

import (
	"bounty-lab/contract"
	"bounty-lab/domain"
	"bounty-lab/errors"
	"bounty-lab/observability"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// roomState serializes every operation scoped to one room:
// membership changes, activity, deposits and the publish that follows them.
type roomState struct {
	mu   sync.Mutex
	room *domain.Room
}

type roomStateShard struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

// Coordinator drives the per-connection state machine
// (Disconnected -> Connected -> joined rooms) and the per-room timer and pool.
//
// Lock order: connection table shard, room state, registry shards, ledger book.
// Publishing only enqueues, so no lock is ever held across viewer I/O.
type Coordinator struct {
	log              *slog.Logger
	registry         contract.IRegistry
	ledger           contract.ILedger
	dispatcher       contract.IDispatcher
	connections      *ConnectionTable
	metrics          *observability.Metrics
	defaultTimeLimit int
	shards           []*roomStateShard
	clock            func() time.Time
}

func NewCoordinator(log *slog.Logger, registry contract.IRegistry, ledger contract.ILedger,
	dispatcher contract.IDispatcher, connections *ConnectionTable, metrics *observability.Metrics,
	defaultTimeLimit, shardCount int) *Coordinator {
	n := normalizeShardCount(shardCount)
	c := &Coordinator{
		log:              log,
		registry:         registry,
		ledger:           ledger,
		dispatcher:       dispatcher,
		connections:      connections,
		metrics:          metrics,
		defaultTimeLimit: defaultTimeLimit,
		shards:           make([]*roomStateShard, n),
		clock:            time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &roomStateShard{rooms: make(map[domain.RoomID]*roomState)}
	}
	return c
}

// WithClock replaces the clock used for on-demand snapshots.
func (c *Coordinator) WithClock(clock func() time.Time) *Coordinator {
	c.clock = clock
	return c
}

func (c *Coordinator) shardOf(roomID domain.RoomID) *roomStateShard {
	return c.shards[shardIndex(string(roomID), len(c.shards))]
}

func (c *Coordinator) lookup(roomID domain.RoomID) *roomState {
	s := c.shardOf(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

func (c *Coordinator) getOrCreate(roomID domain.RoomID) *roomState {
	if st := c.lookup(roomID); st != nil {
		return st
	}
	s := c.shardOf(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.rooms[roomID]; ok {
		return st
	}
	st := &roomState{room: domain.NewRoom(roomID, c.defaultTimeLimit)}
	s.rooms[roomID] = st
	return st
}

// OnConnect attaches the outbound sink of a new connection. No memberships yet.
func (c *Coordinator) OnConnect(connID domain.ConnectionID, sink contract.EventSink) error {
	if !c.connections.Attach(connID, sink) {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateConnection, connID)
	}
	c.metrics.ConnectionOpened()
	c.log.Debug("Viewer connected", "connection", connID)
	return nil
}

// OnDisconnect is terminal for the connection and releases every membership it held.
// Safe to call for unknown connections.
func (c *Coordinator) OnDisconnect(connID domain.ConnectionID) []domain.RoomID {
	if c.connections.Detach(connID) {
		c.metrics.ConnectionClosed()
	}
	rooms := c.registry.DropConnection(connID)
	for _, roomID := range rooms {
		c.dispatcher.PublishViewerCount(roomID, c.registry.CountOf(roomID))
	}
	c.log.Debug("Viewer disconnected", "connection", connID, "rooms", len(rooms))
	return rooms
}

// OnJoinRoom joins the room and returns the state the viewer starts from.
// This is the only place where the timer is computed on demand.
func (c *Coordinator) OnJoinRoom(connID domain.ConnectionID, roomID domain.RoomID) (domain.RoomSnapshot, error) {
	var snapshot domain.RoomSnapshot
	err := c.connections.WithConnection(connID, func() error {
		// Viewers never create room state, only collaborators do.
		st := c.lookup(roomID)
		if st == nil {
			c.registry.Join(roomID, connID)
			snapshot = c.snapshotLocked(domain.NewRoom(roomID, c.defaultTimeLimit))
			c.dispatcher.PublishViewerCount(roomID, snapshot.ViewerCount)
			return nil
		}
		st.mu.Lock()
		defer st.mu.Unlock()
		c.registry.Join(roomID, connID)
		snapshot = c.snapshotLocked(st.room)
		c.dispatcher.PublishViewerCount(roomID, snapshot.ViewerCount)
		return nil
	})
	return snapshot, err
}

// OnLeaveRoom returns the viewer count left in the room.
func (c *Coordinator) OnLeaveRoom(connID domain.ConnectionID, roomID domain.RoomID) (int, error) {
	var count int
	err := c.connections.WithConnection(connID, func() error {
		if st := c.lookup(roomID); st != nil {
			st.mu.Lock()
			defer st.mu.Unlock()
		}
		c.registry.Leave(roomID, connID)
		count = c.registry.CountOf(roomID)
		c.dispatcher.PublishViewerCount(roomID, count)
		return nil
	})
	return count, err
}

// OnActivity moves the room timer forward and broadcasts it.
// A timestamp not strictly later than the stored one is ignored with ErrStaleActivity.
func (c *Coordinator) OnActivity(cmd domain.ReportActivityCommand) error {
	st := c.getOrCreate(cmd.Room)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.room.Touch(cmd.At) {
		c.metrics.ActivityStale()
		c.log.Debug("Stale activity ignored", "room", cmd.Room, "at", cmd.At, "last", st.room.LastActivity)
		return fmt.Errorf("%w: room %s already active at %s", errors.ErrStaleActivity, cmd.Room, st.room.LastActivity)
	}
	c.metrics.ActivityApplied()
	c.dispatcher.PublishTimerUpdate(cmd.Room, cmd.At)
	return nil
}

// OnDeposit records the deposit then broadcasts the new pool total.
// A rejected deposit is never broadcast.
func (c *Coordinator) OnDeposit(cmd domain.ReportDepositCommand) (domain.DepositReceipt, error) {
	st := c.getOrCreate(cmd.Room)
	st.mu.Lock()
	defer st.mu.Unlock()

	receipt, err := c.ledger.RecordDeposit(cmd.Room, cmd.DepositorID, cmd.Amount, cmd.WalletAddress, cmd.At)
	if err != nil {
		c.metrics.DepositRejected()
		return domain.DepositReceipt{}, err
	}
	c.metrics.DepositAccepted()
	c.dispatcher.PublishPoolUpdate(cmd.Room, cmd.Amount, cmd.DepositorName(),
		receipt.NewPoolTotal, c.registry.CountOf(cmd.Room), cmd.At)
	return receipt, nil
}

// RegisterRoom sets the time limit of a room. Last activity is left untouched.
func (c *Coordinator) RegisterRoom(cmd domain.RegisterRoomCommand) error {
	if cmd.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", errors.ErrInvalidTimeLimit, cmd.TimeLimitMinutes)
	}
	st := c.getOrCreate(cmd.Room)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.room.TimeLimitMinutes = cmd.TimeLimitMinutes
	c.log.Info("Room registered", "room", cmd.Room, "timeLimitMinutes", cmd.TimeLimitMinutes)
	return nil
}

// Snapshot reads the room state without joining it.
// Unknown rooms get the inactive defaults.
func (c *Coordinator) Snapshot(roomID domain.RoomID) domain.RoomSnapshot {
	st := c.lookup(roomID)
	if st == nil {
		return c.snapshotLocked(domain.NewRoom(roomID, c.defaultTimeLimit))
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return c.snapshotLocked(st.room)
}

func (c *Coordinator) Depositors(roomID domain.RoomID) []domain.Depositor {
	return c.ledger.DepositorsOf(roomID)
}

// RoomCount is the number of rooms holding timer state.
func (c *Coordinator) RoomCount() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.rooms)
		s.mu.RUnlock()
	}
	return total
}

func (c *Coordinator) ConnectionCount() int {
	return c.connections.Count()
}

// snapshotLocked must be called with the room state held, or on a room nobody else sees.
func (c *Coordinator) snapshotLocked(room *domain.Room) domain.RoomSnapshot {
	var lastActivity *time.Time
	if room.LastActivity != nil {
		t := *room.LastActivity
		lastActivity = &t
	}
	return domain.RoomSnapshot{
		Room:         room.ID,
		Expiry:       room.Remaining(c.clock()),
		LastActivity: lastActivity,
		ViewerCount:  c.registry.CountOf(room.ID),
		PoolTotal:    c.ledger.PoolTotalOf(room.ID),
	}
}

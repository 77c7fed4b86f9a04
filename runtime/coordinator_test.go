package runtime_test

import (
	"bounty-lab/domain"
	"bounty-lab/errors"
	"bounty-lab/mocks"
	"bounty-lab/projection"
	"bounty-lab/runtime"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newConnID() domain.ConnectionID {
	return domain.ConnectionID(uuid.NewString())
}

type coordinatorFixture struct {
	coordinator *runtime.Coordinator
	registry    *runtime.Registry
	ledger      *projection.Ledger
	dispatcher  *mocks.MockIDispatcher
	now         time.Time
}

// newCoordinatorFixture accepts any viewer count push; tests asserting them use newStrictCoordinatorFixture.
func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	f := newStrictCoordinatorFixture(t)
	f.dispatcher.EXPECT().PublishViewerCount(gomock.Any(), gomock.Any()).AnyTimes()
	return f
}

func newStrictCoordinatorFixture(t *testing.T) *coordinatorFixture {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := &coordinatorFixture{
		registry:   runtime.NewRegistry(4),
		ledger:     projection.NewLedger(4),
		dispatcher: mocks.NewMockIDispatcher(ctrl),
		now:        time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	f.coordinator = runtime.NewCoordinator(log, f.registry, f.ledger, f.dispatcher,
		runtime.NewConnectionTable(4), nil, 30, 4).
		WithClock(func() time.Time { return f.now })
	return f
}

func (f *coordinatorFixture) connect(t *testing.T) domain.ConnectionID {
	connID := newConnID()
	require.NoError(t, f.coordinator.OnConnect(connID, mocks.NewMockEventSink(gomock.NewController(t))))
	return connID
}

func TestCoordinator_Join_Unknown_Room_Returns_Inactive_Snapshot(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	connID := f.connect(t)

	// When a viewer joins a room nobody talked about yet
	snapshot, err := f.coordinator.OnJoinRoom(connID, "alpha")

	// Then it gets the inactive defaults and counts itself
	req.NoError(err)
	req.Equal(domain.RoomSnapshot{
		Room:        "alpha",
		Expiry:      domain.Expiry{Status: domain.StatusInactive, LimitMinutes: 30},
		ViewerCount: 1,
		PoolTotal:   0,
	}, snapshot)
}

func TestCoordinator_Join_Requires_Connection(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	_, err := f.coordinator.OnJoinRoom(newConnID(), "alpha")

	req.ErrorIs(err, errors.ErrUnknownConnection)
	req.Equal(0, f.registry.CountOf("alpha"))
}

func TestCoordinator_Connect_Twice_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	connID := f.connect(t)

	err := f.coordinator.OnConnect(connID, mocks.NewMockEventSink(gomock.NewController(t)))

	req.ErrorIs(err, errors.ErrDuplicateConnection)
	req.Equal(1, f.coordinator.ConnectionCount())
}

func TestCoordinator_Join_Snapshot_Reflects_Timer_And_Pool(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	t0 := f.now
	f.dispatcher.EXPECT().PublishTimerUpdate(domain.RoomID("alpha"), t0).Times(1)
	f.dispatcher.EXPECT().PublishPoolUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(1)

	// Given activity at t0 and a deposit of 1.50
	req.NoError(f.coordinator.OnActivity(domain.ReportActivityCommand{Room: "alpha", At: t0}))
	_, err := f.coordinator.OnDeposit(domain.ReportDepositCommand{
		Room: "alpha", DepositorID: "x", Amount: domain.MustParseAmount("1.50"), WalletAddress: "0x1", At: t0,
	})
	req.NoError(err)

	// When a viewer joins ten minutes later
	f.now = t0.Add(10 * time.Minute)
	snapshot, err := f.coordinator.OnJoinRoom(f.connect(t), "alpha")

	// Then
	req.NoError(err)
	req.Equal(domain.StatusActive, snapshot.Expiry.Status)
	req.Equal(int64(1_200_000), snapshot.Expiry.RemainingMs)
	req.Equal(t0, *snapshot.LastActivity)
	req.Equal("1.50", snapshot.PoolTotal.String())
	req.Equal(1, snapshot.ViewerCount)
}

func TestCoordinator_Leave_Returns_Remaining_Viewers(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	conn1, conn2 := f.connect(t), f.connect(t)

	_, err := f.coordinator.OnJoinRoom(conn1, "gamma")
	req.NoError(err)
	_, err = f.coordinator.OnJoinRoom(conn2, "gamma")
	req.NoError(err)

	count, err := f.coordinator.OnLeaveRoom(conn1, "gamma")
	req.NoError(err)
	req.Equal(1, count)
	req.Equal([]domain.ConnectionID{conn2}, f.registry.MembersOf("gamma"))
}

func TestCoordinator_Disconnect_Releases_Every_Room(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	connID := f.connect(t)

	for _, roomID := range []domain.RoomID{"alpha", "beta"} {
		_, err := f.coordinator.OnJoinRoom(connID, roomID)
		req.NoError(err)
	}

	// When the viewer disconnects
	left := f.coordinator.OnDisconnect(connID)

	// Then it left both rooms and can no longer join
	req.ElementsMatch([]domain.RoomID{"alpha", "beta"}, left)
	req.Equal(0, f.registry.CountOf("alpha"))
	req.Equal(0, f.registry.CountOf("beta"))
	req.Equal(0, f.coordinator.ConnectionCount())
	_, err := f.coordinator.OnJoinRoom(connID, "alpha")
	req.ErrorIs(err, errors.ErrUnknownConnection)

	// And disconnecting again is harmless
	req.Nil(f.coordinator.OnDisconnect(connID))
}

func TestCoordinator_Activity_Is_Monotonic(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	t1 := f.now

	// Only the accepted activity is broadcast
	f.dispatcher.EXPECT().PublishTimerUpdate(domain.RoomID("alpha"), t1).Times(1)

	req.NoError(f.coordinator.OnActivity(domain.ReportActivityCommand{Room: "alpha", At: t1}))
	err := f.coordinator.OnActivity(domain.ReportActivityCommand{Room: "alpha", At: t1.Add(-time.Minute)})
	req.ErrorIs(err, errors.ErrStaleActivity)
	err = f.coordinator.OnActivity(domain.ReportActivityCommand{Room: "alpha", At: t1})
	req.ErrorIs(err, errors.ErrStaleActivity)

	req.Equal(t1, *f.coordinator.Snapshot("alpha").LastActivity)
}

func TestCoordinator_Deposit_Broadcasts_New_Pool_Total(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	conn1, conn2 := f.connect(t), f.connect(t)
	_, _ = f.coordinator.OnJoinRoom(conn1, "gamma")
	_, _ = f.coordinator.OnJoinRoom(conn2, "gamma")

	// Then the pool update carries the viewer count and display name fallback
	f.dispatcher.EXPECT().PublishPoolUpdate(domain.RoomID("gamma"), domain.Amount(150), "x",
		domain.Amount(150), 2, f.now).Times(1)

	// When a deposit without display name is reported
	receipt, err := f.coordinator.OnDeposit(domain.ReportDepositCommand{
		Room: "gamma", DepositorID: "x", Amount: 150, WalletAddress: "0x1", At: f.now,
	})

	req.NoError(err)
	req.Equal(domain.DepositReceipt{Room: "gamma", DepositorID: "x", NewCumulative: 150, NewPoolTotal: 150}, receipt)
}

func TestCoordinator_Rejected_Deposit_Is_Not_Broadcast(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	// Given no broadcast is expected
	f.dispatcher.EXPECT().PublishPoolUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := f.coordinator.OnDeposit(domain.ReportDepositCommand{
		Room: "beta", DepositorID: "x", Amount: domain.MustParseAmount("-5"), At: f.now,
	})

	req.ErrorIs(err, errors.ErrInvalidAmount)
	req.Equal(domain.Amount(0), f.ledger.PoolTotalOf("beta"))
	req.Empty(f.coordinator.Depositors("beta"))
}

func TestCoordinator_RegisterRoom(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	f.dispatcher.EXPECT().PublishTimerUpdate(gomock.Any(), gomock.Any()).Times(1)

	// Given an active room with the default limit
	req.NoError(f.coordinator.OnActivity(domain.ReportActivityCommand{Room: "alpha", At: f.now}))

	// When the room is registered with a 60 minutes limit
	req.NoError(f.coordinator.RegisterRoom(domain.RegisterRoomCommand{Room: "alpha", TimeLimitMinutes: 60}))

	// Then the new limit applies and last activity is kept
	f.now = f.now.Add(45 * time.Minute)
	snapshot := f.coordinator.Snapshot("alpha")
	req.Equal(domain.StatusActive, snapshot.Expiry.Status)
	req.Equal(int64(15*60_000), snapshot.Expiry.RemainingMs)

	// And a non positive limit is rejected
	err := f.coordinator.RegisterRoom(domain.RegisterRoomCommand{Room: "alpha", TimeLimitMinutes: 0})
	req.ErrorIs(err, errors.ErrInvalidTimeLimit)
}

func TestCoordinator_Snapshot_Unknown_Room(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	snapshot := f.coordinator.Snapshot("nowhere")

	req.Equal(domain.StatusInactive, snapshot.Expiry.Status)
	req.Equal(30, snapshot.Expiry.LimitMinutes)
	req.Nil(snapshot.LastActivity)
	req.Equal(0, snapshot.ViewerCount)
}

func TestCoordinator_Concurrent_Deposits_Same_Depositor(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	const deposits = 500

	var mu sync.Mutex
	var published []domain.Amount
	f.dispatcher.EXPECT().PublishPoolUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ domain.RoomID, _ domain.Amount, _ string, total domain.Amount, _ int, _ time.Time) {
			mu.Lock()
			published = append(published, total)
			mu.Unlock()
		}).Times(deposits)

	var wg sync.WaitGroup
	errs := make(chan error, deposits)
	for i := 0; i < deposits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.OnDeposit(domain.ReportDepositCommand{
				Room: "beta", DepositorID: "x", Amount: domain.MustParseAmount("0.01"), At: time.Now(),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Every increment is counted once and pool totals are published in order
	req.Equal("5.00", f.ledger.PoolTotalOf("beta").String())
	req.Len(published, deposits)
	for i, total := range published {
		req.Equal(domain.Amount(i+1), total)
	}
}

func TestCoordinator_Concurrent_Activity_And_Deposits_Same_Room(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	const rounds = 200

	// Given every activity is strictly later than the previous one
	f.dispatcher.EXPECT().PublishTimerUpdate(domain.RoomID("gamma"), gomock.Any()).Times(rounds)
	f.dispatcher.EXPECT().PublishPoolUpdate(domain.RoomID("gamma"), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(rounds)

	var activityAt []time.Time
	for i := 0; i < rounds; i++ {
		activityAt = append(activityAt, f.now.Add(time.Duration(i+1)*time.Second))
	}

	// When activity and deposits race on the same room
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	var activityMu sync.Mutex
	next := 0
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			activityMu.Lock()
			defer activityMu.Unlock()
			errs <- f.coordinator.OnActivity(domain.ReportActivityCommand{Room: "gamma", At: activityAt[next]})
			next++
		}()
		go func() {
			defer wg.Done()
			_, err := f.coordinator.OnDeposit(domain.ReportDepositCommand{
				Room: "gamma", DepositorID: "x", Amount: domain.MustParseAmount("1.00"), At: f.now,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// Then both kinds complete and publish
	for err := range errs {
		req.NoError(err)
	}
	req.Equal("200.00", f.ledger.PoolTotalOf("gamma").String())
	snapshot := f.coordinator.Snapshot("gamma")
	req.Equal(activityAt[rounds-1], *snapshot.LastActivity)
}

func TestCoordinator_Viewers_Never_Create_Room_State(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	connID := f.connect(t)

	// When a viewer joins and leaves rooms nobody registered
	for _, room := range []domain.RoomID{"r1", "r2", "r3"} {
		_, err := f.coordinator.OnJoinRoom(connID, room)
		req.NoError(err)
		_, err = f.coordinator.OnLeaveRoom(connID, room)
		req.NoError(err)
	}
	_, err := f.coordinator.OnLeaveRoom(connID, "never-joined")
	req.NoError(err)

	// Then no room state was allocated and the registry is empty again
	req.Equal(0, f.coordinator.RoomCount())
	req.Equal(0, f.registry.CountOf("r1"))

	// And a collaborator call still creates it
	req.NoError(f.coordinator.RegisterRoom(domain.RegisterRoomCommand{Room: "r1", TimeLimitMinutes: 5}))
	req.Equal(1, f.coordinator.RoomCount())
}

func TestCoordinator_Viewer_Count_Is_Pushed_On_Membership_Changes(t *testing.T) {
	req := require.New(t)
	f := newStrictCoordinatorFixture(t)
	conn1, conn2 := f.connect(t), f.connect(t)

	// Then every membership change pushes the new count, in order
	gomock.InOrder(
		f.dispatcher.EXPECT().PublishViewerCount(domain.RoomID("gamma"), 1),
		f.dispatcher.EXPECT().PublishViewerCount(domain.RoomID("gamma"), 2),
		f.dispatcher.EXPECT().PublishViewerCount(domain.RoomID("gamma"), 1),
		f.dispatcher.EXPECT().PublishViewerCount(domain.RoomID("gamma"), 0),
	)

	// When two viewers join, one leaves and the other disconnects
	_, err := f.coordinator.OnJoinRoom(conn1, "gamma")
	req.NoError(err)
	_, err = f.coordinator.OnJoinRoom(conn2, "gamma")
	req.NoError(err)
	_, err = f.coordinator.OnLeaveRoom(conn1, "gamma")
	req.NoError(err)
	req.Equal([]domain.RoomID{"gamma"}, f.coordinator.OnDisconnect(conn2))
}

package services_test

import (
	"bounty-lab/domain"
	"bounty-lab/errors"
	"bounty-lab/mocks"
	"bounty-lab/projection"
	"bounty-lab/runtime"
	"bounty-lab/services"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newRoomService(t *testing.T) (*services.RoomService, *mocks.MockIDispatcher) {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dispatcher := mocks.NewMockIDispatcher(ctrl)
	dispatcher.EXPECT().PublishViewerCount(gomock.Any(), gomock.Any()).AnyTimes()
	coordinator := runtime.NewCoordinator(log, runtime.NewRegistry(4), projection.NewLedger(4),
		dispatcher, runtime.NewConnectionTable(4), nil, 30, 4)
	return services.NewRoomService(log, coordinator), dispatcher
}

func TestRoomService_ReportActivity_Stale_Is_Not_An_Error(t *testing.T) {
	req := require.New(t)
	service, dispatcher := newRoomService(t)
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	dispatcher.EXPECT().PublishTimerUpdate(domain.RoomID("alpha"), t1).Times(1)

	applied, err := service.ReportActivity(services.ActivityRequest{RoomID: "alpha", At: t1})
	req.NoError(err)
	req.True(applied)

	// When an older report arrives late
	applied, err = service.ReportActivity(services.ActivityRequest{RoomID: "alpha", At: t1.Add(-time.Second)})

	// Then it is ignored without error
	req.NoError(err)
	req.False(applied)
}

func TestRoomService_ReportActivity_Validation(t *testing.T) {
	req := require.New(t)
	service, _ := newRoomService(t)

	_, err := service.ReportActivity(services.ActivityRequest{RoomID: "", At: time.Now()})
	req.ErrorIs(err, errors.ErrInvalidRequest)

	_, err = service.ReportActivity(services.ActivityRequest{RoomID: "alpha"})
	req.ErrorIs(err, errors.ErrInvalidRequest)
}

func TestRoomService_ReportDeposit(t *testing.T) {
	req := require.New(t)
	service, dispatcher := newRoomService(t)
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	dispatcher.EXPECT().PublishPoolUpdate(domain.RoomID("beta"), gomock.Any(), "Xavier", gomock.Any(), 0, at).Times(2)

	// Given two deposits of the same depositor
	_, err := service.ReportDeposit(services.DepositRequest{
		RoomID: "beta", DepositorID: "x", DisplayName: "Xavier",
		Amount: domain.MustParseAmount("1.50"), WalletAddress: "0xA", At: at,
	})
	req.NoError(err)
	receipt, err := service.ReportDeposit(services.DepositRequest{
		RoomID: "beta", DepositorID: "x", DisplayName: "Xavier",
		Amount: domain.MustParseAmount("2.25"), WalletAddress: "0xA", At: at,
	})

	// Then the receipt reflects the aggregate
	req.NoError(err)
	req.Equal("3.75", receipt.NewCumulative.String())
	req.Equal("3.75", receipt.NewPoolTotal.String())
	req.Len(service.Depositors("beta"), 1)
	req.Equal("3.75", service.Snapshot("beta").PoolTotal.String())
}

func TestRoomService_ReportDeposit_Rejections(t *testing.T) {
	req := require.New(t)
	service, _ := newRoomService(t)
	at := time.Now()

	_, err := service.ReportDeposit(services.DepositRequest{
		RoomID: "beta", DepositorID: "x", Amount: domain.MustParseAmount("-5"), WalletAddress: "0xA", At: at,
	})
	req.ErrorIs(err, errors.ErrInvalidAmount)

	_, err = service.ReportDeposit(services.DepositRequest{
		RoomID: "beta", Amount: 100, WalletAddress: "0xA", At: at,
	})
	req.ErrorIs(err, errors.ErrInvalidRequest)

	req.Equal(domain.Amount(0), service.Snapshot("beta").PoolTotal)
}

func TestRoomService_RegisterRoom_Validation(t *testing.T) {
	req := require.New(t)
	service, _ := newRoomService(t)

	req.NoError(service.RegisterRoom(services.RegisterRoomRequest{RoomID: "alpha", TimeLimitMinutes: 45}))
	req.Equal(45, service.Snapshot("alpha").Expiry.LimitMinutes)

	err := service.RegisterRoom(services.RegisterRoomRequest{RoomID: "alpha", TimeLimitMinutes: -1})
	req.ErrorIs(err, errors.ErrInvalidRequest)
}

func TestRoomService_Join_And_Leave(t *testing.T) {
	req := require.New(t)
	service, _ := newRoomService(t)
	ctrl := gomock.NewController(t)
	connID := domain.ConnectionID("c1")

	req.NoError(service.Connect(connID, mocks.NewMockEventSink(ctrl)))

	snapshot, err := service.JoinRoom(connID, "gamma")
	req.NoError(err)
	req.Equal(1, snapshot.ViewerCount)

	_, err = service.JoinRoom(connID, "")
	req.ErrorIs(err, errors.ErrInvalidRequest)

	count, err := service.LeaveRoom(connID, "gamma")
	req.NoError(err)
	req.Equal(0, count)

	service.Disconnect(connID)
	_, err = service.JoinRoom(connID, "gamma")
	req.ErrorIs(err, errors.ErrUnknownConnection)
}

func TestRoomService_Timestamps_Out_Of_Range_Are_Rejected(t *testing.T) {
	service, _ := newRoomService(t)
	tests := []struct {
		name string
		at   time.Time
	}{
		{"Before the epoch", time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"Past 2262", time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			_, err := service.ReportDeposit(services.DepositRequest{
				RoomID: "beta", DepositorID: "x", Amount: 100, WalletAddress: "0xA", At: tt.at,
			})
			req.ErrorIs(err, errors.ErrInvalidRequest)

			_, err = service.ReportActivity(services.ActivityRequest{RoomID: "beta", At: tt.at})
			req.ErrorIs(err, errors.ErrInvalidRequest)

			req.Equal(domain.Amount(0), service.Snapshot("beta").PoolTotal)
		})
	}
}

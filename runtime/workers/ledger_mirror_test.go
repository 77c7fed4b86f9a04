package workers

import (
	"bounty-lab/domain"
	"bounty-lab/mocks"
	"bounty-lab/projection"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLedgerMirror_Flush_Only_Changed_Rooms(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockILedgerRepository(ctrl)
	ledger := projection.NewLedger(4)
	worker := NewLedgerMirrorWorker(log, ledger, repository, nil, time.Hour)

	// Given deposits in two rooms
	_, _ = ledger.RecordDeposit("alpha", "x", 100, "0xA", time.Now())
	_, _ = ledger.RecordDeposit("beta", "y", 100, "0xB", time.Now())
	repository.EXPECT().SaveBook(gomock.Any()).Return(nil).Times(2)

	// When flushing twice without changes in between
	n, err := worker.Flush()
	req.NoError(err)
	req.Equal(2, n)
	n, err = worker.Flush()
	req.NoError(err)
	req.Equal(0, n)

	// Then only a room that changed is saved again
	_, _ = ledger.RecordDeposit("alpha", "x", 100, "0xA", time.Now())
	repository.EXPECT().SaveBook(gomock.Any()).DoAndReturn(func(book projection.RoomBook) error {
		req.Equal(domain.RoomID("alpha"), book.Room)
		req.Equal(domain.Amount(200), book.PoolTotal)
		return nil
	}).Times(1)
	n, err = worker.Flush()
	req.NoError(err)
	req.Equal(1, n)
}

func TestLedgerMirror_Failed_Room_Is_Retried(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockILedgerRepository(ctrl)
	ledger := projection.NewLedger(4)
	worker := NewLedgerMirrorWorker(log, ledger, repository, nil, time.Hour)

	_, _ = ledger.RecordDeposit("alpha", "x", 100, "0xA", time.Now())

	// Given the first save fails
	repository.EXPECT().SaveBook(gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)
	_, err := worker.Flush()
	req.Error(err)

	// Then the next flush tries again
	repository.EXPECT().SaveBook(gomock.Any()).Return(nil).Times(1)
	n, err := worker.Flush()
	req.NoError(err)
	req.Equal(1, n)
}

func TestLedgerMirror_MarkSaved_Skips_Restored_Rooms(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockILedgerRepository(ctrl)
	ledger := projection.NewLedger(4)
	worker := NewLedgerMirrorWorker(log, ledger, repository, nil, time.Hour)

	books := []projection.RoomBook{{
		Room: "alpha", Version: 4,
		Depositors: []domain.Depositor{{DepositorID: "x", Cumulative: 100}},
	}}
	req.NoError(ledger.Restore(books))
	worker.MarkSaved(books)

	repository.EXPECT().SaveBook(gomock.Any()).Times(0)
	n, err := worker.Flush()
	req.NoError(err)
	req.Equal(0, n)
}

func TestLedgerMirror_Final_Flush_On_Shutdown(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockILedgerRepository(ctrl)
	ledger := projection.NewLedger(4)
	worker := NewLedgerMirrorWorker(log, ledger, repository, nil, time.Hour)

	_, _ = ledger.RecordDeposit("alpha", "x", 100, "0xA", time.Now())
	repository.EXPECT().SaveBook(gomock.Any()).Return(nil).Times(1)

	// When the worker is cancelled before its first tick
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Then pending changes are still written
	req.NoError(worker.Run(ctx))
}

//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"bounty-lab/domain"
	"bounty-lab/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound side of one viewer connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks which connections watch which room.
// Every method is total: an unknown room behaves as an empty set.
type IRegistry interface {
	Join(roomID domain.RoomID, connID domain.ConnectionID)
	Leave(roomID domain.RoomID, connID domain.ConnectionID)
	DropConnection(connID domain.ConnectionID) []domain.RoomID
	MembersOf(roomID domain.RoomID) []domain.ConnectionID
	CountOf(roomID domain.RoomID) int
}

// ITransport delivers one event to one connection, best effort.
type ITransport interface {
	Send(ctx context.Context, connID domain.ConnectionID, e event.DomainEvent) error
}

type ILedger interface {
	RecordDeposit(roomID domain.RoomID, depositorID domain.DepositorID, amount domain.Amount,
		walletAddress string, at time.Time) (domain.DepositReceipt, error)
	DepositorsOf(roomID domain.RoomID) []domain.Depositor
	PoolTotalOf(roomID domain.RoomID) domain.Amount
}

// IDispatcher never blocks the caller on viewer I/O.
type IDispatcher interface {
	PublishTimerUpdate(roomID domain.RoomID, lastActivity time.Time)
	PublishPoolUpdate(roomID domain.RoomID, depositAmount domain.Amount, depositorDisplayName string,
		newPoolTotal domain.Amount, viewerCount int, at time.Time)
	PublishViewerCount(roomID domain.RoomID, viewerCount int)
}

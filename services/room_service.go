//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"bounty-lab/contract"
	"bounty-lab/domain"
	"bounty-lab/errors"
	"bounty-lab/runtime"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// Timestamps outside this window cannot be mirrored as Unix nanoseconds.
var (
	earliestTimestamp = time.Unix(0, 0).UTC()
	latestTimestamp   = time.Date(2262, 1, 1, 0, 0, 0, 0, time.UTC)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		at, ok := fl.Field().Interface().(time.Time)
		return ok && !at.Before(earliestTimestamp) && at.Before(latestTimestamp)
	})
	return v
}

type RegisterRoomRequest struct {
	RoomID           string `validate:"required,max=128"`
	TimeLimitMinutes int    `validate:"required,gt=0,lte=10080"`
}

type ActivityRequest struct {
	RoomID string    `validate:"required,max=128"`
	At     time.Time `validate:"required,timestamp"`
}

// DepositRequest is a deposit already confirmed by settlement.
// The amount is checked by the ledger, not here, so that a malformed amount
// surfaces as ErrInvalidAmount.
type DepositRequest struct {
	RoomID        string `validate:"required,max=128"`
	DepositorID   string `validate:"required,max=128"`
	DisplayName   string `validate:"max=64"`
	Amount        domain.Amount
	WalletAddress string    `validate:"required,max=128"`
	At            time.Time `validate:"required,timestamp"`
}

type IRoomService interface {
	Connect(connID domain.ConnectionID, sink contract.EventSink) error
	Disconnect(connID domain.ConnectionID)
	JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) (domain.RoomSnapshot, error)
	LeaveRoom(connID domain.ConnectionID, roomID domain.RoomID) (int, error)
	RegisterRoom(req RegisterRoomRequest) error
	ReportActivity(req ActivityRequest) (bool, error)
	ReportDeposit(req DepositRequest) (domain.DepositReceipt, error)
	Snapshot(roomID domain.RoomID) domain.RoomSnapshot
	Depositors(roomID domain.RoomID) []domain.Depositor
}

type RoomService struct {
	log         *slog.Logger
	coordinator *runtime.Coordinator
}

func NewRoomService(log *slog.Logger, coordinator *runtime.Coordinator) *RoomService {
	return &RoomService{log: log, coordinator: coordinator}
}

func (s *RoomService) Connect(connID domain.ConnectionID, sink contract.EventSink) error {
	return s.coordinator.OnConnect(connID, sink)
}

func (s *RoomService) Disconnect(connID domain.ConnectionID) {
	s.coordinator.OnDisconnect(connID)
}

func (s *RoomService) JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) (domain.RoomSnapshot, error) {
	if err := validate.Var(string(roomID), "required,max=128"); err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.coordinator.OnJoinRoom(connID, roomID)
}

func (s *RoomService) LeaveRoom(connID domain.ConnectionID, roomID domain.RoomID) (int, error) {
	if err := validate.Var(string(roomID), "required,max=128"); err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.coordinator.OnLeaveRoom(connID, roomID)
}

func (s *RoomService) RegisterRoom(req RegisterRoomRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.coordinator.RegisterRoom(domain.RegisterRoomCommand{
		Room:             domain.RoomID(req.RoomID),
		TimeLimitMinutes: req.TimeLimitMinutes,
	})
}

// ReportActivity returns false when the report was stale and therefore ignored.
// Stale reports are reordered or duplicated deliveries, not failures.
func (s *RoomService) ReportActivity(req ActivityRequest) (bool, error) {
	if err := validate.Struct(req); err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	err := s.coordinator.OnActivity(domain.ReportActivityCommand{Room: domain.RoomID(req.RoomID), At: req.At})
	if stdErrors.Is(err, errors.ErrStaleActivity) {
		s.log.Debug("Activity ignored", "room", req.RoomID, "error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RoomService) ReportDeposit(req DepositRequest) (domain.DepositReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return domain.DepositReceipt{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	receipt, err := s.coordinator.OnDeposit(domain.ReportDepositCommand{
		Room:          domain.RoomID(req.RoomID),
		DepositorID:   domain.DepositorID(req.DepositorID),
		DisplayName:   req.DisplayName,
		Amount:        req.Amount,
		WalletAddress: req.WalletAddress,
		At:            req.At,
	})
	if err != nil {
		s.log.Info("Deposit rejected", "room", req.RoomID, "depositor", req.DepositorID, "amount", req.Amount, "error", err)
		return domain.DepositReceipt{}, err
	}
	return receipt, nil
}

func (s *RoomService) Snapshot(roomID domain.RoomID) domain.RoomSnapshot {
	return s.coordinator.Snapshot(roomID)
}

func (s *RoomService) Depositors(roomID domain.RoomID) []domain.Depositor {
	return s.coordinator.Depositors(roomID)
}

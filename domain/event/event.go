package event

import (
	"bounty-lab/domain"
	"time"
)

type Type string

const (
	TimerUpdatedType Type = "timerUpdated"
	PoolUpdatedType  Type = "poolUpdated"
	ViewerCountType  Type = "clientCountUpdated"
)

// DomainEvent is a room-scoped state snapshot pushed to viewers.
// Events carry latest values, never deltas, so a lost event is healed by the next one.
type DomainEvent interface {
	RoomID() domain.RoomID
	Type() Type
}

type TimerUpdated struct {
	Room         domain.RoomID
	LastActivity time.Time
}

func (e TimerUpdated) RoomID() domain.RoomID { return e.Room }
func (e TimerUpdated) Type() Type            { return TimerUpdatedType }

type PoolUpdated struct {
	Room                 domain.RoomID
	DepositAmount        domain.Amount
	DepositorDisplayName string
	NewPoolTotal         domain.Amount
	ViewerCount          int
	At                   time.Time
}

func (e PoolUpdated) RoomID() domain.RoomID { return e.Room }
func (e PoolUpdated) Type() Type            { return PoolUpdatedType }

// ViewerCountUpdated follows every join, leave and disconnect.
type ViewerCountUpdated struct {
	Room        domain.RoomID
	ViewerCount int
}

func (e ViewerCountUpdated) RoomID() domain.RoomID { return e.Room }
func (e ViewerCountUpdated) Type() Type            { return ViewerCountType }

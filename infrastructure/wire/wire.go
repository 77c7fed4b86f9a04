// Package wire holds the JSON shapes shared by the HTTP API and the viewer websocket.
package wire

import (
	"bounty-lab/domain"
	"bounty-lab/domain/event"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

type MessageType string

const (
	TypeJoinRoom     MessageType = "joinRoom"
	TypeLeaveRoom    MessageType = "leaveRoom"
	TypeRoomJoined   MessageType = "roomJoined"
	TypeRoomLeft     MessageType = "roomLeft"
	TypeTimerUpdated MessageType = MessageType(event.TimerUpdatedType)
	TypePoolUpdated  MessageType = MessageType(event.PoolUpdatedType)
	TypeViewerCount  MessageType = MessageType(event.ViewerCountType)
	TypeError        MessageType = "error"
)

// ClientFrame is what a viewer sends over the socket.
type ClientFrame struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
}

// Envelope is what the server sends over the socket.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type SnapshotView struct {
	RoomID                string        `json:"roomId"`
	Status                string        `json:"status"`
	RemainingMs           *int64        `json:"remainingMs,omitempty"`
	TimeLimitMinutes      *int          `json:"timeLimitMinutes,omitempty"`
	LastActivityTimestamp *time.Time    `json:"lastActivityTimestamp,omitempty"`
	ViewerCount           int           `json:"viewerCount"`
	PoolTotal             domain.Amount `json:"poolTotal"`
}

func NewSnapshotView(s domain.RoomSnapshot) SnapshotView {
	view := SnapshotView{
		RoomID:                string(s.Room),
		Status:                string(s.Expiry.Status),
		LastActivityTimestamp: s.LastActivity,
		ViewerCount:           s.ViewerCount,
		PoolTotal:             s.PoolTotal,
	}
	switch s.Expiry.Status {
	case domain.StatusActive:
		view.RemainingMs = lo.ToPtr(s.Expiry.RemainingMs)
	case domain.StatusInactive:
		view.TimeLimitMinutes = lo.ToPtr(s.Expiry.LimitMinutes)
	}
	return view
}

type RoomLeftView struct {
	RoomID      string `json:"roomId"`
	ViewerCount int    `json:"viewerCount"`
}

type DepositorView struct {
	DepositorID   string        `json:"depositorId"`
	Cumulative    domain.Amount `json:"cumulative"`
	WalletAddress string        `json:"walletAddress"`
	LastDepositAt time.Time     `json:"lastDepositAt"`
}

func NewDepositorViews(depositors []domain.Depositor) []DepositorView {
	return lo.Map(depositors, func(d domain.Depositor, _ int) DepositorView {
		return DepositorView{
			DepositorID:   string(d.DepositorID),
			Cumulative:    d.Cumulative,
			WalletAddress: d.WalletAddress,
			LastDepositAt: d.LastDepositAt,
		}
	})
}

type TimerUpdatedView struct {
	RoomID                string    `json:"roomId"`
	LastActivityTimestamp time.Time `json:"lastActivityTimestamp"`
}

type PoolUpdatedView struct {
	RoomID               string        `json:"roomId"`
	DepositAmount        domain.Amount `json:"depositAmount"`
	DepositorDisplayName string        `json:"depositorDisplayName"`
	NewPoolTotal         domain.Amount `json:"newPoolTotal"`
	ViewerCount          int           `json:"viewerCount"`
	Timestamp            time.Time     `json:"timestamp"`
}

type ViewerCountView struct {
	RoomID      string `json:"roomId"`
	ClientCount int    `json:"clientCount"`
}

type ErrorView struct {
	Error string `json:"error"`
}

// NewEventEnvelope maps a pushed room event to its socket envelope.
func NewEventEnvelope(e event.DomainEvent) (Envelope, error) {
	switch evt := e.(type) {
	case event.TimerUpdated:
		return Envelope{Type: TypeTimerUpdated, Payload: TimerUpdatedView{
			RoomID:                string(evt.Room),
			LastActivityTimestamp: evt.LastActivity,
		}}, nil
	case event.PoolUpdated:
		return Envelope{Type: TypePoolUpdated, Payload: PoolUpdatedView{
			RoomID:               string(evt.Room),
			DepositAmount:        evt.DepositAmount,
			DepositorDisplayName: evt.DepositorDisplayName,
			NewPoolTotal:         evt.NewPoolTotal,
			ViewerCount:          evt.ViewerCount,
			Timestamp:            evt.At,
		}}, nil
	case event.ViewerCountUpdated:
		return Envelope{Type: TypeViewerCount, Payload: ViewerCountView{
			RoomID:      string(evt.Room),
			ClientCount: evt.ViewerCount,
		}}, nil
	default:
		return Envelope{}, fmt.Errorf("unsupported event type %T", e)
	}
}

func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

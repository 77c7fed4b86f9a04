package domain

import "time"

// ReportActivityCommand is sent by the message-posting flow once a post is stored.
type ReportActivityCommand struct {
	Room RoomID
	At   time.Time
}

// ReportDepositCommand is sent by the deposit flow once settlement confirmed the transfer.
// DisplayName is optional and only used for the broadcast.
type ReportDepositCommand struct {
	Room          RoomID
	DepositorID   DepositorID
	DisplayName   string
	Amount        Amount
	WalletAddress string
	At            time.Time
}

func (c ReportDepositCommand) DepositorName() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return string(c.DepositorID)
}

type RegisterRoomCommand struct {
	Room             RoomID
	TimeLimitMinutes int
}

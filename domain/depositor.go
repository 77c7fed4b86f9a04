package domain

import "time"

// Depositor is the aggregated contribution of one depositor to one room.
// There is exactly one per (room, depositor) pair; Cumulative never decreases.
type Depositor struct {
	Room          RoomID
	DepositorID   DepositorID
	Cumulative    Amount
	WalletAddress string
	LastDepositAt time.Time
}

// DepositReceipt is what the depositor gets back for an accepted deposit.
type DepositReceipt struct {
	Room          RoomID
	DepositorID   DepositorID
	NewCumulative Amount
	NewPoolTotal  Amount
}

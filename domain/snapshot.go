// Package domain contains core concepts of the bounty room system.
// This file defines what a viewer receives when it joins or queries a room.
package domain

import "time"

// RoomSnapshot is computed on demand, as opposed to the pushed events.
type RoomSnapshot struct {
	Room         RoomID
	Expiry       Expiry
	LastActivity *time.Time
	ViewerCount  int
	PoolTotal    Amount
}

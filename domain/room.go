// Package domain contains core concepts of the bounty room system.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

type RoomID string

type ConnectionID string

type DepositorID string

// Room is the timer state of a room.
// LastActivity stays nil until the first activity is reported.
type Room struct {
	ID               RoomID
	TimeLimitMinutes int
	LastActivity     *time.Time
}

func NewRoom(id RoomID, timeLimitMinutes int) *Room {
	return &Room{
		ID:               id,
		TimeLimitMinutes: timeLimitMinutes,
	}
}

// Touch moves the last activity forward.
// It returns false, leaving the room untouched, when at is not strictly later
// than the stored timestamp.
func (r *Room) Touch(at time.Time) bool {
	if r.LastActivity != nil && !at.After(*r.LastActivity) {
		return false
	}
	t := at
	r.LastActivity = &t
	return true
}

// Remaining computes the expiry of the room at the given instant.
func (r *Room) Remaining(now time.Time) Expiry {
	return Remaining(r.TimeLimitMinutes, r.LastActivity, now)
}

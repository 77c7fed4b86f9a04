package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemaining_No_Activity_Is_Inactive(t *testing.T) {
	req := require.New(t)

	// Given room alpha with a 30 minutes limit and no activity
	expiry := Remaining(30, nil, time.Now())

	// Then it never expires
	req.Equal(Expiry{Status: StatusInactive, LimitMinutes: 30}, expiry)
}

func TestRemaining_Active(t *testing.T) {
	req := require.New(t)
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	expiry := Remaining(30, &t0, t0.Add(10*time.Minute))

	req.Equal(StatusActive, expiry.Status)
	req.Equal(int64(1_200_000), expiry.RemainingMs)
}

func TestRemaining_Expired(t *testing.T) {
	req := require.New(t)
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	req.Equal(Expiry{Status: StatusExpired}, Remaining(30, &t0, t0.Add(31*time.Minute)))
	// The boundary itself is expired
	req.Equal(StatusExpired, Remaining(30, &t0, t0.Add(30*time.Minute)).Status)
}

func TestRemaining_Clock_Skew_Is_Clamped(t *testing.T) {
	req := require.New(t)
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	expiry := Remaining(30, &t0, t0.Add(-5*time.Second))

	req.Equal(StatusActive, expiry.Status)
	req.Equal(int64(30*60_000), expiry.RemainingMs)
}

func TestRoom_Touch_Is_Monotonic(t *testing.T) {
	req := require.New(t)
	room := NewRoom("alpha", 30)
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	// When activity happens at t1
	req.True(room.Touch(t1))

	// Then an earlier or equal timestamp is rejected
	req.False(room.Touch(t1.Add(-time.Minute)))
	req.False(room.Touch(t1))
	req.Equal(t1, *room.LastActivity)

	// And a later one is applied
	req.True(room.Touch(t1.Add(time.Second)))
	req.Equal(t1.Add(time.Second), *room.LastActivity)
}

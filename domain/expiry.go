package domain

import "time"

type ExpiryStatus string

const (
	StatusInactive ExpiryStatus = "inactive"
	StatusActive   ExpiryStatus = "active"
	StatusExpired  ExpiryStatus = "expired"
)

// Expiry is the result of the expiry computation.
// RemainingMs is only meaningful for StatusActive,
// LimitMinutes only for StatusInactive.
type Expiry struct {
	Status       ExpiryStatus
	RemainingMs  int64
	LimitMinutes int
}

// Remaining computes how much of the rolling window is left.
// A room without activity never expires.
func Remaining(limitMinutes int, lastActivity *time.Time, now time.Time) Expiry {
	if lastActivity == nil {
		return Expiry{Status: StatusInactive, LimitMinutes: limitMinutes}
	}
	elapsed := now.Sub(*lastActivity).Milliseconds()
	if elapsed < 0 {
		// clock skew between reporter and server
		elapsed = 0
	}
	limitMs := int64(limitMinutes) * 60_000
	if elapsed >= limitMs {
		return Expiry{Status: StatusExpired}
	}
	return Expiry{Status: StatusActive, RemainingMs: limitMs - elapsed}
}

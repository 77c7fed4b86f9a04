package errors

import "fmt"

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrInvalidAmount       = fmt.Errorf("invalid amount")
	ErrStaleActivity       = fmt.Errorf("stale activity")
	ErrInvalidTimeLimit    = fmt.Errorf("invalid time limit")
	ErrUnknownConnection   = fmt.Errorf("unknown connection")
	ErrDuplicateConnection = fmt.Errorf("connection already attached")
	ErrConnectionClosed    = fmt.Errorf("connection closed")
	ErrSendBufferFull      = fmt.Errorf("send buffer full")
	ErrInvalidToken        = fmt.Errorf("invalid or expired token")
	ErrMissingToken        = fmt.Errorf("authorization token is missing")
	ErrInvalidRequest      = fmt.Errorf("invalid request")
)

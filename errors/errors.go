package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNotAuthenticated   = fmt.Errorf("handshake is not authenticated")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrInvalidFrame       = fmt.Errorf("invalid message format")
	ErrInvalidTicket      = fmt.Errorf("invalid upgrade ticket")
	ErrContentTooLong     = fmt.Errorf("message content exceeds the maximum length")
	ErrReconnectExhausted = fmt.Errorf("reconnect attempts exhausted")
)

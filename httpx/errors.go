package httpx

import (
	"errors"

	"dqx0.com/go/oneshot/httpx/internal/http1"
)

var (
	ErrBadRequest         = http1.ErrBadRequest
	ErrHeaderTooLarge     = http1.ErrHeaderTooLarge
	ErrBodyTooLarge       = http1.ErrBodyTooLarge
	ErrUnsupportedFraming = http1.ErrUnsupportedFraming
	ErrTimeout            = errors.New("httpx: timeout")
	ErrHandlerPanic       = errors.New("httpx: handler panicked")
	ErrServerClosed       = errors.New("httpx: server closed")
)

// OpError reports a transport failure on one connection.
type OpError struct {
	Op        string // "read" or "write"
	RequestID string
	Err       error
}

func (e *OpError) Error() string {
	if e.RequestID == "" {
		return "httpx: " + e.Op + ": " + e.Err.Error()
	}
	return "httpx: " + e.Op + " [" + e.RequestID + "]: " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

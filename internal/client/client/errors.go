package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/common"
)

var ErrUnavailable = errors.New("server unavailable")

// ConflictError is returned for a 409 on requests that allow it. It carries
// the server's current record so the caller can resolve the conflict.
type ConflictError struct {
	CurrentRecord []byte
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: server holds a newer record (%d bytes)", len(e.CurrentRecord))
}

func (e *ConflictError) Is(target error) bool { return target == common.ErrConflict }

// NetworkError wraps a transport failure: no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == common.ErrNetwork }

// StatusError is any response status the protocol does not expect.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status %d", e.Code) }

func (e *StatusError) Is(target error) bool { return target == common.ErrUnexpectedStatus }

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTaskShape = errors.New("invalid task shape")
	ErrUnsupportedKind  = errors.New("unsupported kind")
	ErrCycleInFlight    = errors.New("cycle already in flight")

	ErrTransport         = errors.New("transport error")
	ErrRemoteStatus      = errors.New("remote status error")
	ErrMalformedResponse = errors.New("malformed response")
)

type RemoteErrorKind string

const (
	RemoteTransport RemoteErrorKind = "transport"
	RemoteStatus    RemoteErrorKind = "status"
	RemoteMalformed RemoteErrorKind = "malformed"
)

// RemoteError is returned by every upstream call that did not produce a usable answer.
type RemoteError struct {
	Kind   RemoteErrorKind
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == RemoteTransport
	case ErrRemoteStatus:
		return e.Kind == RemoteStatus
	case ErrMalformedResponse:
		return e.Kind == RemoteMalformed
	}
	return false
}

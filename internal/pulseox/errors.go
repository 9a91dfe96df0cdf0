package pulseox

import (
	"errors"
	"fmt"
)

// State errors. Operations fail synchronously with one of these when the
// Client's status register does not permit the transition; the register is
// left unchanged.
var (
	// ErrNotBound is returned when subscribing before handles are bound.
	ErrNotBound = errors.New("measurement handles not bound")

	// ErrNotSubscribed is returned when unsubscribing without an active
	// subscription.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrAlreadySubscribed is returned when subscribing while a
	// subscription is already active.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrOperationInProgress is returned when a concurrent bind, subscribe
	// or unsubscribe is already in flight on the same Client.
	ErrOperationInProgress = errors.New("operation in progress")

	// ErrNilHandler is returned when Subscribe is called without a handler.
	ErrNilHandler = errors.New("measurement handler is required")
)

// Decode errors. Surfaced only through the measurement handler's error
// channel, never through Subscribe/Unsubscribe.
var (
	ErrInvalidLength    = errors.New("invalid measurement length")
	ErrChecksumMismatch = errors.New("measurement checksum mismatch")
)

// StateError wraps a state sentinel with the operation that failed and the
// state observed at the time.
type StateError struct {
	Op    string
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v (state %s)", e.Op, e.Err, e.State)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing service, characteristic or descriptor in
// a discovery result. Bind leaves the Client unmodified when returning it.
type NotFoundError struct {
	Resource string
	UUID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in discovery result", e.Resource, e.UUID)
}

// ATTErrControlPointNotSupported is the application-layer attribute error
// a peer returns when it rejects a control point value.
const ATTErrControlPointNotSupported = 0x80

// ATTError is an application-layer attribute protocol error returned by the
// peer. It propagates through the same channel as transport errors.
type ATTError struct {
	Code uint8
}

func (e *ATTError) Error() string {
	if e.Code == ATTErrControlPointNotSupported {
		return fmt.Sprintf("att error 0x%02x: control point value not supported", e.Code)
	}
	return fmt.Sprintf("att error 0x%02x", e.Code)
}

// Is matches any ATTError with the same code.
func (e *ATTError) Is(target error) bool {
	var other *ATTError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

package pulseox

import "sync/atomic"

// State is the lifecycle position of a Client. Transitions happen only
// through atomic compare-and-swap, so at most one bind, subscribe or
// unsubscribe can be in flight per Client at a time.
type State int32

const (
	// StateUnbound is the initial state: no handles are known.
	StateUnbound State = iota

	// StateBound means handles are bound and no subscription is active.
	// Both a fresh bind and a completed unsubscribe land here.
	StateBound

	// StateSubscribing marks an in-flight enable-indications write.
	StateSubscribing

	// StateSubscribed means indications are enabled and the measurement
	// handler is registered.
	StateSubscribed

	// StateUnsubscribing marks an in-flight disable-indications write.
	StateUnsubscribing
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateUnsubscribing:
		return "unsubscribing"
	default:
		return "invalid"
	}
}

// transient reports whether the state marks an in-flight operation.
func (s State) transient() bool {
	return s == StateSubscribing || s == StateUnsubscribing
}

// stateTracker is the atomically-updated status register of a Client.
type stateTracker struct {
	v atomic.Int32
}

func (t *stateTracker) Load() State {
	return State(t.v.Load())
}

func (t *stateTracker) CompareAndSwap(old, new State) bool {
	return t.v.CompareAndSwap(int32(old), int32(new))
}

// Store unconditionally sets the state. Used only for rollback by the
// operation that owns the current transient state.
func (t *stateTracker) Store(s State) {
	t.v.Store(int32(s))
}

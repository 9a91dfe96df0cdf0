package pulseox

import (
	"errors"
	"sync"
)

// MeasurementHandler receives the outcome of each indication: a decoded
// measurement, or a decode error with a nil measurement. A decode error does
// not tear down the subscription.
//
// Handlers are invoked from the transport's context and must not block.
type MeasurementHandler interface {
	HandleMeasurement(m *Measurement, err error)
}

// MeasurementHandlerFunc adapts a function to the MeasurementHandler
// interface.
type MeasurementHandlerFunc func(m *Measurement, err error)

func (f MeasurementHandlerFunc) HandleMeasurement(m *Measurement, err error) {
	f(m, err)
}

// SubscriptionListener observes completion of the asynchronous descriptor
// writes behind Subscribe and Unsubscribe. All methods are invoked from the
// transport's context, after the state transition has been finalized.
type SubscriptionListener interface {
	// OnSubscribed reports the outcome of the enable-indications write.
	// A nil error means the Client is now Subscribed.
	OnSubscribed(err error)

	// OnUnsubscribed reports the outcome of the disable-indications
	// write. A nil error means the Client is back to Bound.
	OnUnsubscribed(err error)
}

// Client drives the pulse oximeter protocol over one connection: it binds
// discovered handles, manages the indication subscription and feeds decoded
// measurements to the application's handler.
//
// A Client is associated with exactly one connection and is not shared
// across connections. It is safe for concurrent use.
type Client struct {
	transport Transport
	state     stateTracker

	mu       sync.Mutex // guards h and listener
	h        handles
	listener SubscriptionListener
}

// NewClient creates a Client in the Unbound state.
func NewClient(transport Transport) (*Client, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	return &Client{transport: transport}, nil
}

// SetSubscriptionListener installs the completion listener. Call it before
// Subscribe; replacing the listener mid-subscription is not supported.
func (c *Client) SetSubscriptionListener(l SubscriptionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return c.state.Load()
}

// Bind locates the measurement characteristic and its CCC descriptor in the
// discovery result and stores their handles. On any lookup failure the
// Client is left unmodified.
//
// Rebinding is allowed: a Bound or Subscribed Client is reset to Bound with
// the new handles and any stale indication handler is discarded. Bind fails
// with ErrOperationInProgress while a subscribe or unsubscribe is in flight.
func (c *Client) Bind(result DiscoveryResult) error {
	hs, err := findMeasurementHandles(result)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Take over the register from whichever stable state it holds.
	var prev State
	for {
		prev = c.state.Load()
		if prev.transient() {
			return &StateError{Op: "bind", State: prev, Err: ErrOperationInProgress}
		}
		if c.state.CompareAndSwap(prev, StateBound) {
			break
		}
	}

	if prev == StateSubscribed {
		// Stale subscription from a previous binding.
		c.transport.ClearIndicationHandler(c.h.value)
	}
	c.h = hs
	return nil
}

// Subscribe enables indications on the measurement characteristic and
// registers handler to receive decoded readings.
//
// The call returns once the enable write has been issued; completion is
// delivered through the SubscriptionListener, and the handler is not
// registered (indications are dropped) until the write succeeds. On an
// immediate or completion-time write failure the Client reverts to Bound.
func (c *Client) Subscribe(handler MeasurementHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	if !c.state.CompareAndSwap(StateBound, StateSubscribing) {
		s := c.state.Load()
		switch s {
		case StateUnbound:
			return &StateError{Op: "subscribe", State: s, Err: ErrNotBound}
		case StateSubscribed:
			return &StateError{Op: "subscribe", State: s, Err: ErrAlreadySubscribed}
		default:
			return &StateError{Op: "subscribe", State: s, Err: ErrOperationInProgress}
		}
	}

	c.mu.Lock()
	hs := c.h
	listener := c.listener
	c.mu.Unlock()

	err := c.transport.WriteDescriptor(hs.ccc, CCCEnableIndications, func(werr error) {
		if werr != nil {
			c.state.Store(StateBound)
		} else {
			c.transport.SetIndicationHandler(hs.value, func(payload []byte) {
				deliver(handler, payload)
			})
			c.state.Store(StateSubscribed)
		}
		if listener != nil {
			listener.OnSubscribed(werr)
		}
	})
	if err != nil {
		// Write never issued; done will not run.
		c.state.Store(StateBound)
		return err
	}
	return nil
}

// Unsubscribe disables indications and clears the measurement handler.
//
// The call returns once the disable write has been issued; completion is
// delivered through the SubscriptionListener. On write failure the handler
// stays registered and the Client remains Subscribed.
func (c *Client) Unsubscribe() error {
	if !c.state.CompareAndSwap(StateSubscribed, StateUnsubscribing) {
		s := c.state.Load()
		if s.transient() {
			return &StateError{Op: "unsubscribe", State: s, Err: ErrOperationInProgress}
		}
		return &StateError{Op: "unsubscribe", State: s, Err: ErrNotSubscribed}
	}

	c.mu.Lock()
	hs := c.h
	listener := c.listener
	c.mu.Unlock()

	err := c.transport.WriteDescriptor(hs.ccc, CCCDisable, func(werr error) {
		if werr != nil {
			c.state.Store(StateSubscribed)
		} else {
			c.transport.ClearIndicationHandler(hs.value)
			c.state.Store(StateBound)
		}
		if listener != nil {
			listener.OnUnsubscribed(werr)
		}
	})
	if err != nil {
		c.state.Store(StateSubscribed)
		return err
	}
	return nil
}

// deliver decodes one indication payload and hands the result to the
// application's handler.
func deliver(h MeasurementHandler, payload []byte) {
	m, err := Decode(payload)
	if err != nil {
		h.HandleMeasurement(nil, err)
		return
	}
	h.HandleMeasurement(&m, nil)
}

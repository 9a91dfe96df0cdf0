package main

import (
	"encoding/hex"
	"io"

	"github.com/smallnest/ringbuffer"

	"github.com/srg/oxim/internal/pulseox"
)

// captureTransport decorates a pulseox.Transport, teeing every indication
// payload into a bounded ring of recent raw bytes. When a payload fails to
// decode, the ring contents give the surrounding wire traffic for debugging.
type captureTransport struct {
	pulseox.Transport
	ring *ringbuffer.RingBuffer
}

func newCaptureTransport(inner pulseox.Transport, capacity int) *captureTransport {
	return &captureTransport{
		Transport: inner,
		ring:      ringbuffer.New(capacity),
	}
}

// SetIndicationHandler wraps fn so payload bytes are captured before decode.
func (c *captureTransport) SetIndicationHandler(valueHandle uint16, fn func(payload []byte)) {
	c.Transport.SetIndicationHandler(valueHandle, func(payload []byte) {
		c.capture(payload)
		fn(payload)
	})
}

// capture appends payload to the ring, discarding the oldest bytes when full.
// Note: smallnest/ringbuffer does not overwrite, so on a full or partial
// write the ring is reset to keep the most recent traffic.
func (c *captureTransport) capture(payload []byte) {
	if _, err := c.ring.Write(payload); err != nil {
		c.ring.Reset()
		_, _ = c.ring.Write(payload)
	}
}

// Dump writes a hex dump of the captured bytes and drains the ring.
func (c *captureTransport) Dump(w io.Writer) {
	n := c.ring.Length()
	if n == 0 {
		return
	}
	buf := make([]byte, n)
	read, err := c.ring.Read(buf)
	if err != nil || read == 0 {
		return
	}
	_, _ = io.WriteString(w, hex.Dump(buf[:read]))
}

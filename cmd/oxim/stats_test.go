package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/srg/oxim/internal/pulseox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReading(pulse uint16, spo2 uint8) pulseox.Measurement {
	return pulseox.Measurement{PulseRate: pulse, SpO2: spo2}
}

func TestSessionStatsSummary(t *testing.T) {
	// GOAL: Verify min/avg/max are computed over recorded readings

	stats := newSessionStats()
	stats.Record(validReading(70, 97))
	stats.Record(validReading(80, 99))
	stats.Record(validReading(75, 98))
	stats.RecordError()

	var buf bytes.Buffer
	stats.PrintSummary(&buf)
	out := buf.String()

	assert.Contains(t, out, "readings:      3", "summary MUST count readings")
	assert.Contains(t, out, "decode errors: 1", "summary MUST count decode errors")
	assert.Contains(t, out, "min 70 / avg 75 / max 80 bpm", "pulse stats MUST be computed")
	assert.Contains(t, out, "min 97 / avg 98 / max 99 %", "SpO2 stats MUST be computed")
}

func TestSessionStatsSkipsInvalidReadings(t *testing.T) {
	// GOAL: Verify flagged-invalid readings are excluded from the vitals summary

	stats := newSessionStats()
	stats.Record(pulseox.Measurement{
		Flags:     pulseox.Flags{NoFingerDetected: true},
		PulseRate: 511,
		SpO2:      127,
	})

	var buf bytes.Buffer
	stats.PrintSummary(&buf)
	out := buf.String()

	assert.Contains(t, out, "readings:      1", "invalid readings still count toward the total")
	assert.Contains(t, out, "no valid readings", "placeholder vitals MUST NOT produce stats")
}

func TestSessionStatsWindowOverflow(t *testing.T) {
	// GOAL: Verify the summary window drops the oldest readings on overflow

	stats := newSessionStats()
	// First reading would dominate the max if the window kept it
	stats.Record(validReading(200, 99))
	for i := 0; i < statsWindowSize; i++ {
		stats.Record(validReading(60, 95))
	}

	var buf bytes.Buffer
	stats.PrintSummary(&buf)
	out := buf.String()

	assert.NotContains(t, out, "max 200", "overflowed readings MUST be dropped from the window")
	assert.Contains(t, out, "min 60 / avg 60 / max 60 bpm", "window MUST hold only the recent readings")
}

func TestFlagAnnotations(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		flags    pulseox.Flags
		expected []string
	}{
		{
			name:     "clean reading has no annotations",
			flags:    pulseox.Flags{},
			expected: nil,
		},
		{
			name:     "alert conditions",
			flags:    pulseox.Flags{NoSignal: true, ProbeUnplugged: true, NoFingerDetected: true},
			expected: []string{"NO-SIGNAL", "PROBE-UNPLUGGED", "NO-FINGER"},
		},
		{
			name:     "transient conditions",
			flags:    pulseox.Flags{PulseSearching: true, PulseBeep: true},
			expected: []string{"SEARCHING", "BEEP"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := flagAnnotations(tt.flags)
			if tt.expected == nil {
				assert.Empty(t, out, "clean flags MUST render empty")
				return
			}
			for _, want := range tt.expected {
				assert.Contains(t, out, want, "annotation MUST be present")
			}
		})
	}
}

// nullTransport satisfies pulseox.Transport for capture tests.
type nullTransport struct {
	handler func(payload []byte)
}

func (n *nullTransport) WriteDescriptor(handle uint16, value []byte, done func(error)) error {
	return nil
}

func (n *nullTransport) SetIndicationHandler(valueHandle uint16, fn func(payload []byte)) {
	n.handler = fn
}

func (n *nullTransport) ClearIndicationHandler(valueHandle uint16) {
	n.handler = nil
}

func TestCaptureTransport(t *testing.T) {
	// GOAL: Verify indication payloads are teed into the capture ring and forwarded

	inner := &nullTransport{}
	capture := newCaptureTransport(inner, 32)

	var forwarded [][]byte
	capture.SetIndicationHandler(0x0010, func(payload []byte) {
		forwarded = append(forwarded, append([]byte(nil), payload...))
	})
	require.NotNil(t, inner.handler, "handler MUST be registered on the inner transport")

	frame := []byte{0x04, 0x48, 0x00, 0x62, 0x2e}
	inner.handler(frame)

	require.Len(t, forwarded, 1, "payload MUST be forwarded to the wrapped handler")
	assert.Equal(t, frame, forwarded[0])

	var buf bytes.Buffer
	capture.Dump(&buf)
	assert.Contains(t, buf.String(), "04 48 00 62 2e", "dump MUST contain the captured bytes")

	// Dump drains the ring
	buf.Reset()
	capture.Dump(&buf)
	assert.Empty(t, buf.String(), "second dump MUST be empty")
}

func TestCaptureTransportOverflowKeepsRecentBytes(t *testing.T) {
	// GOAL: Verify the capture ring resets on overflow instead of blocking

	inner := &nullTransport{}
	capture := newCaptureTransport(inner, 8)
	capture.SetIndicationHandler(0x0010, func([]byte) {})

	inner.handler([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	inner.handler([]byte{0x06, 0x07, 0x08, 0x09, 0x0a}) // overflows the 8-byte ring

	var buf bytes.Buffer
	capture.Dump(&buf)
	out := buf.String()

	assert.True(t, strings.Contains(out, "06 07 08 09 0a"), "most recent payload MUST survive the overflow")
	assert.False(t, strings.Contains(out, "01 02 03 04 05"), "oldest bytes MUST be discarded")
}

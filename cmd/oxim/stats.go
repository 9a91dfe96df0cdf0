package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/hedzr/go-ringbuf/v2/mpmc"

	"github.com/srg/oxim/internal/pulseox"
)

// statsWindowSize bounds how many recent readings feed the min/max/avg
// summary; older readings are overwritten.
const statsWindowSize = 256

// sessionStats accumulates readings over a monitoring session. Totals are
// lock-free; the ring of recent readings is drained once at summary time.
type sessionStats struct {
	total        atomic.Int64
	decodeErrors atomic.Int64
	started      time.Time
	window       mpmc.RichOverlappedRingBuffer[pulseox.Measurement]
}

func newSessionStats() *sessionStats {
	return &sessionStats{
		started: time.Now(),
		window:  mpmc.NewOverlappedRingBuffer[pulseox.Measurement](statsWindowSize),
	}
}

// Record adds a decoded reading. Safe to call from the transport goroutine.
func (s *sessionStats) Record(m pulseox.Measurement) {
	s.total.Add(1)
	// Ring buffer drops the oldest entry on overflow
	_, _ = s.window.EnqueueM(m)
}

// RecordError counts a payload that failed to decode.
func (s *sessionStats) RecordError() {
	s.decodeErrors.Add(1)
}

// PrintSummary drains the recent-readings window and writes the session
// summary. Call once, after the subscription is torn down.
func (s *sessionStats) PrintSummary(w io.Writer) {
	total := s.total.Load()
	decodeErrors := s.decodeErrors.Load()
	elapsed := time.Since(s.started).Truncate(time.Second)

	fmt.Fprintf(w, "\nSession summary (%s):\n", elapsed)
	fmt.Fprintf(w, "  readings:      %d\n", total)
	fmt.Fprintf(w, "  decode errors: %d\n", decodeErrors)

	var (
		count              int
		minPulse, maxPulse uint16
		minSpO2, maxSpO2   uint8
		sumPulse, sumSpO2  int64
	)
	for !s.window.IsEmpty() {
		m, err := s.window.Dequeue()
		if err != nil {
			break
		}
		// Readings flagged invalid carry placeholder values; keep them out
		// of the vitals summary.
		if !m.Flags.Valid() {
			continue
		}
		if count == 0 {
			minPulse, maxPulse = m.PulseRate, m.PulseRate
			minSpO2, maxSpO2 = m.SpO2, m.SpO2
		} else {
			if m.PulseRate < minPulse {
				minPulse = m.PulseRate
			}
			if m.PulseRate > maxPulse {
				maxPulse = m.PulseRate
			}
			if m.SpO2 < minSpO2 {
				minSpO2 = m.SpO2
			}
			if m.SpO2 > maxSpO2 {
				maxSpO2 = m.SpO2
			}
		}
		sumPulse += int64(m.PulseRate)
		sumSpO2 += int64(m.SpO2)
		count++
	}

	if count == 0 {
		fmt.Fprintln(w, "  no valid readings")
		return
	}

	fmt.Fprintf(w, "  pulse (last %d): min %d / avg %d / max %d bpm\n",
		count, minPulse, sumPulse/int64(count), maxPulse)
	fmt.Fprintf(w, "  SpO2  (last %d): min %d / avg %d / max %d %%\n",
		count, minSpO2, sumSpO2/int64(count), maxSpO2)
}

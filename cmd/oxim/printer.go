package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/srg/oxim/internal/pulseox"
)

var (
	alertColor  = color.New(color.FgRed)
	noticeColor = color.New(color.FgYellow)
	valueColor  = color.New(color.FgGreen)
)

// flagAnnotations renders the status conditions of a reading, color-coded by
// severity: red for conditions that invalidate the reading, yellow for
// transient ones.
func flagAnnotations(f pulseox.Flags) string {
	var parts []string
	if f.NoSignal {
		parts = append(parts, alertColor.Sprint("NO-SIGNAL"))
	}
	if f.ProbeUnplugged {
		parts = append(parts, alertColor.Sprint("PROBE-UNPLUGGED"))
	}
	if f.NoFingerDetected {
		parts = append(parts, alertColor.Sprint("NO-FINGER"))
	}
	if f.PulseSearching {
		parts = append(parts, noticeColor.Sprint("SEARCHING"))
	}
	if f.PulseBeep {
		parts = append(parts, "BEEP")
	}
	return strings.Join(parts, " ")
}

// printMeasurement writes one reading as a human-readable line.
func printMeasurement(w io.Writer, ts time.Time, m *pulseox.Measurement) {
	line := fmt.Sprintf("%s  pulse %s bpm  SpO2 %s%%",
		ts.Format("15:04:05"),
		valueColor.Sprintf("%3d", m.PulseRate),
		valueColor.Sprintf("%3d", m.SpO2))
	if ann := flagAnnotations(m.Flags); ann != "" {
		line += "  " + ann
	}
	fmt.Fprintln(w, line)
}

// measurementJSON is the line-oriented JSON form emitted with --json.
type measurementJSON struct {
	Timestamp time.Time `json:"timestamp"`
	PulseRate uint16    `json:"pulseRate"`
	SpO2      uint8     `json:"spo2"`
	Valid     bool      `json:"valid"`
	Flags     flagsJSON `json:"flags"`
}

type flagsJSON struct {
	NoSignal         bool `json:"noSignal"`
	ProbeUnplugged   bool `json:"probeUnplugged"`
	PulseBeep        bool `json:"pulseBeep"`
	NoFingerDetected bool `json:"noFingerDetected"`
	PulseSearching   bool `json:"pulseSearching"`
}

func printMeasurementJSON(w io.Writer, ts time.Time, m *pulseox.Measurement) error {
	return json.NewEncoder(w).Encode(measurementJSON{
		Timestamp: ts,
		PulseRate: m.PulseRate,
		SpO2:      m.SpO2,
		Valid:     m.Flags.Valid(),
		Flags: flagsJSON{
			NoSignal:         m.Flags.NoSignal,
			ProbeUnplugged:   m.Flags.ProbeUnplugged,
			PulseBeep:        m.Flags.PulseBeep,
			NoFingerDetected: m.Flags.NoFingerDetected,
			PulseSearching:   m.Flags.PulseSearching,
		},
	})
}

package pulseox

// Flags bit positions within the first byte of a measurement record.
const (
	flagNoSignal         = 1 << 0
	flagProbeUnplugged   = 1 << 1
	flagPulseBeep        = 1 << 2
	flagNoFingerDetected = 1 << 3
	flagPulseSearching   = 1 << 4
)

// Flags holds the sensor status conditions reported alongside each
// measurement. The conditions are independent; any combination is valid.
type Flags struct {
	NoSignal         bool // sensor cannot acquire a signal
	ProbeUnplugged   bool // finger probe disconnected from the device
	PulseBeep        bool // device beeped on this pulse
	NoFingerDetected bool // no finger inserted in the probe
	PulseSearching   bool // device is still locking onto a pulse
}

// DecodeFlags extracts the status conditions from a raw flags byte.
// Unknown high bits are ignored.
func DecodeFlags(b byte) Flags {
	return Flags{
		NoSignal:         b&flagNoSignal != 0,
		ProbeUnplugged:   b&flagProbeUnplugged != 0,
		PulseBeep:        b&flagPulseBeep != 0,
		NoFingerDetected: b&flagNoFingerDetected != 0,
		PulseSearching:   b&flagPulseSearching != 0,
	}
}

// Byte packs the flags back into their wire representation.
func (f Flags) Byte() byte {
	var b byte
	if f.NoSignal {
		b |= flagNoSignal
	}
	if f.ProbeUnplugged {
		b |= flagProbeUnplugged
	}
	if f.PulseBeep {
		b |= flagPulseBeep
	}
	if f.NoFingerDetected {
		b |= flagNoFingerDetected
	}
	if f.PulseSearching {
		b |= flagPulseSearching
	}
	return b
}

// Valid reports whether the reading the flags accompany can be trusted:
// the probe is connected, a finger is present and the device has a signal.
func (f Flags) Valid() bool {
	return !f.NoSignal && !f.ProbeUnplugged && !f.NoFingerDetected
}

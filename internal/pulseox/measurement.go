package pulseox

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the fixed length of a measurement indication payload:
// flags byte, little-endian pulse rate, SpO2 byte, check byte.
const RecordSize = 5

// Measurement is a single validated pulse oximeter reading. It is only ever
// constructed by Decode after length and checksum validation succeed, or by
// test code via Encode round-trips.
type Measurement struct {
	Flags     Flags
	PulseRate uint16 // beats per minute
	SpO2      uint8  // blood-oxygen saturation, percent
	Check     uint8  // validated trailing check byte
}

// checksum computes the check byte over the first four record bytes.
//
// The peripheral's own computation is undocumented; XOR over the preceding
// bytes matches captures from BerryMed BM1000C units and is used end-to-end
// here, including by Encode.
func checksum(b []byte) byte {
	return b[0] ^ b[1] ^ b[2] ^ b[3]
}

// Decode parses and validates a raw indication payload. It is a pure
// function: no instance or global state is touched, and on any error no
// Measurement is produced.
func Decode(payload []byte) (Measurement, error) {
	if len(payload) != RecordSize {
		return Measurement{}, fmt.Errorf("%w: got %d bytes, want %d",
			ErrInvalidLength, len(payload), RecordSize)
	}

	if got, want := payload[4], checksum(payload); got != want {
		return Measurement{}, fmt.Errorf("%w: got 0x%02x, want 0x%02x",
			ErrChecksumMismatch, got, want)
	}

	return Measurement{
		Flags:     DecodeFlags(payload[0]),
		PulseRate: binary.LittleEndian.Uint16(payload[1:3]),
		SpO2:      payload[3],
		Check:     payload[4],
	}, nil
}

// Encode serializes the measurement into its wire form, computing the check
// byte. The stored Check field is ignored.
func (m Measurement) Encode() []byte {
	b := make([]byte, RecordSize)
	b[0] = m.Flags.Byte()
	binary.LittleEndian.PutUint16(b[1:3], m.PulseRate)
	b[3] = m.SpO2
	b[4] = checksum(b)
	return b
}

func (m Measurement) String() string {
	return fmt.Sprintf("%d bpm, SpO2 %d%%", m.PulseRate, m.SpO2)
}

package pulseox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srg/oxim/internal/pulseox"
)

func TestDecodeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		expected pulseox.Flags
	}{
		{
			name:     "all clear",
			input:    0x00,
			expected: pulseox.Flags{},
		},
		{
			name:     "no signal (bit 0)",
			input:    0x01,
			expected: pulseox.Flags{NoSignal: true},
		},
		{
			name:     "probe unplugged (bit 1)",
			input:    0x02,
			expected: pulseox.Flags{ProbeUnplugged: true},
		},
		{
			name:     "pulse beep (bit 2)",
			input:    0x04,
			expected: pulseox.Flags{PulseBeep: true},
		},
		{
			name:     "no finger detected (bit 3)",
			input:    0x08,
			expected: pulseox.Flags{NoFingerDetected: true},
		},
		{
			name:     "pulse searching (bit 4)",
			input:    0x10,
			expected: pulseox.Flags{PulseSearching: true},
		},
		{
			name:  "combination",
			input: 0x15,
			expected: pulseox.Flags{
				NoSignal:       true,
				PulseBeep:      true,
				PulseSearching: true,
			},
		},
		{
			name:     "unknown high bits ignored",
			input:    0xe0,
			expected: pulseox.Flags{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pulseox.DecodeFlags(tt.input))
		})
	}
}

func TestFlagsByteRoundTrip(t *testing.T) {
	for b := byte(0); b < 0x20; b++ {
		assert.Equal(t, b, pulseox.DecodeFlags(b).Byte(), "flags byte 0x%02x", b)
	}
}

func TestFlagsValid(t *testing.T) {
	assert.True(t, pulseox.Flags{}.Valid())
	assert.True(t, pulseox.Flags{PulseBeep: true, PulseSearching: true}.Valid())
	assert.False(t, pulseox.Flags{NoSignal: true}.Valid())
	assert.False(t, pulseox.Flags{ProbeUnplugged: true}.Valid())
	assert.False(t, pulseox.Flags{NoFingerDetected: true}.Valid())
}

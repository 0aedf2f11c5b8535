package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceBitrate(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		expected int
	}{
		{"zero duration falls back to max", 0, MaxVoiceBitrate},
		{"negative duration falls back to max", -5, MaxVoiceBitrate},
		{"short fragment capped at max", 10, MaxVoiceBitrate},
		{"threshold fragment", 16, 500_000},
		{"one minute", 60, 133_333},
		{"ten minutes", 600, 13_333},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VoiceBitrate(tt.duration))
		})
	}
}

func TestVoiceBitrate_StaysWithinBudget(t *testing.T) {
	// bitrate * duration must never exceed the 1 MiB voice ceiling,
	// and the bitrate itself never exceeds what libopus accepts.
	for d := 1; d <= 1000; d++ {
		bitrate := VoiceBitrate(d)
		require.LessOrEqual(t, bitrate, MaxVoiceBitrate, "duration %d", d)
		if bitrate < MaxVoiceBitrate {
			require.LessOrEqual(t, bitrate*d, voiceBudgetBits, "duration %d", d)
		}
	}
}

func TestParseBitrateCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{"valid output", "stream,320000", 320000, false},
		{"trailing newline", "stream,128000\n", 128000, false},
		{"padded field", "stream, 96000 ", 96000, false},
		{"empty output", "", 0, true},
		{"missing field", "stream", 0, true},
		{"extra fields", "stream,1,2", 0, true},
		{"non-numeric bitrate", "stream,N/A", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bitrate, err := parseBitrateCSV([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadProbeOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, bitrate)
		})
	}
}

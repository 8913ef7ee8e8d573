package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_Formats(t *testing.T) {
	cases := map[string]string{
		"iso utc offset":  "2025-11-07T00:00:00+00:00",
		"iso z":           "2025-11-07T00:00:00Z",
		"iso other zone":  "2025-11-07T02:00:00+02:00",
		"iso naive":       "2025-11-07T00:00:00",
		"iso space naive": "2025-11-07 00:00:00",
		"iso fraction":    "2025-11-07T00:00:00.000Z",
		"date only":       "2025-11-07",
		"epoch seconds":   "1762473600",
		"epoch ms":        "1762473600000",
		"epoch us":        "1762473600000000",
		"epoch ns":        "1762473600000000000",
		"epoch float s":   "1762473600.0",
		"epoch float ms":  "1.7624736e12",
		"padded":          "  1762473600000 ",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseTimestamp(raw)
			require.NoError(t, err)
			assert.True(t, t0.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "yesterday", "NaN"} {
		_, err := ParseTimestamp(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, "raw=%q", raw)
	}
}

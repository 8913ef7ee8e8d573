package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/lphedge/internal/adapters/export"
	"github.com/alejandrodnm/lphedge/internal/adapters/pricefeed"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)

func TestWriteEventsCSV(t *testing.T) {
	events := []domain.RebalanceEvent{{
		Timestamp:          t0,
		Price:              3310.5,
		AnchorBefore:       3150,
		Move:               0.050952,
		K:                  0.39,
		PrimaryNow:         0.5,
		HedgeBefore:        domain.ShortQty(0.7),
		HedgeTarget:        domain.ShortQty(0.195),
		Delta:              0.505,
		Cash:               533.4,
		HedgePnL:           -112.1,
		CumulativeAbsDelta: 0.505,
	}}

	var buf bytes.Buffer
	require.NoError(t, export.WriteEventsCSV(&buf, events))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ts,price,anchor_before,move,k,primary_now,hedge_before,hedge_target,delta,cash,hedge_pnl,cum_abs_delta", lines[0])
	assert.Equal(t,
		"2025-11-07T00:00:00Z,3310.5000,3150.0000,0.050952,0.390000,0.50000000,-0.70000000,-0.19500000,0.50500000,533.400000,-112.100000,0.50500000",
		lines[1])
}

func TestWriteEventsCSV_NoEventsWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteEventsCSV(&buf, nil))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.True(t, strings.HasPrefix(buf.String(), "ts,price,"))
}

func TestWritePricesFile_RoundTripsThroughPricefeed(t *testing.T) {
	series := domain.PriceSeries{
		{Timestamp: t0, Price: 3150.25},
		{Timestamp: t0.Add(time.Hour), Price: 3160},
		{Timestamp: t0.Add(2 * time.Hour), Price: 3148.125},
	}

	path := filepath.Join(t.TempDir(), "eth_1h.csv")
	require.NoError(t, export.WritePricesFile(path, series))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "timestamp,close\n1762473600000,3150.25\n"))

	got, err := pricefeed.Load(path)
	require.NoError(t, err)
	assert.Equal(t, series, got)
}

func TestWriteEventsFile_BadPath(t *testing.T) {
	err := export.WriteEventsFile(filepath.Join(t.TempDir(), "missing", "events.csv"), nil)
	assert.Error(t, err)
}

package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layouts ISO-8601 aceptados. Sin zona → UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp interpreta un timestamp en cualquiera de los formatos que
// aparecen en los CSV de exchanges y lo normaliza a UTC. Lo comparten los
// lectores de precios y los límites de ventana de la config:
//   - ISO-8601 con o sin zona (incluye "Z")
//   - epoch numérico; la unidad se infiere por magnitud:
//     >= 1e18 ns, >= 1e15 µs, >= 1e12 ms, resto segundos
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("domain.ParseTimestamp: empty timestamp: %w", ErrInvalidInput)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epochInt(n), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("domain.ParseTimestamp: unrecognised timestamp %q: %w", raw, ErrInvalidInput)
	}
	return epochFloat(f), nil
}

func epochInt(n int64) time.Time {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e18:
		return time.Unix(0, n).UTC()
	case abs >= 1e15:
		return time.UnixMicro(n).UTC()
	case abs >= 1e12:
		return time.UnixMilli(n).UTC()
	default:
		return time.Unix(n, 0).UTC()
	}
}

func epochFloat(f float64) time.Time {
	sec := f
	switch abs := math.Abs(f); {
	case abs >= 1e18:
		sec = f / 1e9
	case abs >= 1e15:
		sec = f / 1e6
	case abs >= 1e12:
		sec = f / 1e3
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC()
}

package pricefeed

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/tidwall/gjson"
)

// ParseJSON parsea un array JSON de cierres. Acepta dos formas por elemento:
//   - kline de Binance: [openTime, open, high, low, close, ...]
//   - objeto con alguna clave de tiempo (timestamp/open_time/...) y "close"
func ParseJSON(data []byte) (domain.PriceSeries, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("pricefeed.ParseJSON: invalid json: %w", domain.ErrInvalidInput)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("pricefeed.ParseJSON: expected top-level array: %w", domain.ErrInvalidInput)
	}

	rows := root.Array()
	series := make(domain.PriceSeries, 0, len(rows))
	for i, row := range rows {
		var tsRaw, closeRaw gjson.Result
		switch {
		case row.IsArray():
			cols := row.Array()
			if len(cols) < 5 {
				return nil, fmt.Errorf("pricefeed.ParseJSON: row %d: kline needs at least 5 fields, got %d: %w",
					i, len(cols), domain.ErrInvalidInput)
			}
			tsRaw, closeRaw = cols[0], cols[4]
		case row.IsObject():
			fields := normalizedFields(row)
			tsRaw = firstField(fields, timeColumns)
			closeRaw = firstField(fields, closeColumns)
			if !tsRaw.Exists() || !closeRaw.Exists() {
				return nil, fmt.Errorf("pricefeed.ParseJSON: row %d: missing time or close field: %w", i, domain.ErrInvalidInput)
			}
		default:
			return nil, fmt.Errorf("pricefeed.ParseJSON: row %d: unsupported element %s: %w", i, row.Type, domain.ErrInvalidInput)
		}

		ts, err := domain.ParseTimestamp(rawNumber(tsRaw))
		if err != nil {
			return nil, fmt.Errorf("pricefeed.ParseJSON: row %d: %w", i, err)
		}
		price, err := parsePrice(rawNumber(closeRaw))
		if err != nil {
			return nil, fmt.Errorf("pricefeed.ParseJSON: row %d: %w", i, err)
		}
		series = append(series, domain.PricePoint{Timestamp: ts, Price: price})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("pricefeed.ParseJSON: no rows loaded: %w", domain.ErrInsufficientData)
	}

	sortSeries(series)
	return series, nil
}

// rawNumber devuelve el texto del valor: números tal cual (sin pasar por
// float64, para no perder precisión en epochs en ns) y strings sin comillas.
func rawNumber(r gjson.Result) string {
	if r.Type == gjson.Number {
		return r.Raw
	}
	return r.String()
}

func normalizedFields(obj gjson.Result) map[string]gjson.Result {
	out := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := strings.ToLower(strings.TrimSpace(key.String()))
		if _, dup := out[k]; !dup {
			out[k] = value
		}
		return true
	})
	return out
}

func firstField(fields map[string]gjson.Result, candidates []string) gjson.Result {
	for _, c := range candidates {
		if v, ok := fields[c]; ok {
			return v
		}
	}
	return gjson.Result{}
}

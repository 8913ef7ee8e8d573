package binance

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/tidwall/gjson"
)

const (
	klinesPerPage  = 1000
	klinesMaxPages = 500 // ~20 años de velas horarias
)

// FetchKlines descarga los cierres de symbol/interval con open time en [start, end].
// Pagina con startTime = último openTime + 1 hasta cubrir el rango.
// end cero = ahora.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) (domain.PriceSeries, error) {
	if symbol == "" || interval == "" {
		return nil, fmt.Errorf("binance.FetchKlines: symbol and interval are required: %w", domain.ErrInvalidInput)
	}
	// startTime es obligatorio para paginar hacia delante; un time.Time cero
	// daría un epoch negativo que Binance rechaza.
	if start.IsZero() || start.Before(time.UnixMilli(0)) {
		return nil, fmt.Errorf("binance.FetchKlines: start is required and must not precede the unix epoch, got %s: %w",
			start.Format(time.RFC3339), domain.ErrInvalidInput)
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if end.Before(start) {
		return nil, fmt.Errorf("binance.FetchKlines: end %s before start %s: %w",
			end.Format(time.RFC3339), start.Format(time.RFC3339), domain.ErrInvalidInput)
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	var all domain.PriceSeries
	for page := 0; page < klinesMaxPages; page++ {
		q := url.Values{}
		q.Set("symbol", symbol)
		q.Set("interval", interval)
		q.Set("startTime", strconv.FormatInt(startMs, 10))
		q.Set("endTime", strconv.FormatInt(endMs, 10))
		q.Set("limit", strconv.Itoa(klinesPerPage))

		body, err := c.get(ctx, c.baseURL+"/api/v3/klines?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("binance.FetchKlines: %w", err)
		}

		points, lastOpen, err := parseKlines(body)
		if err != nil {
			return nil, fmt.Errorf("binance.FetchKlines: page %d: %w", page, err)
		}
		for _, p := range points {
			if p.Timestamp.UnixMilli() <= endMs {
				all = append(all, p)
			}
		}

		slog.Debug("fetched klines page",
			"symbol", symbol,
			"interval", interval,
			"page", page,
			"count", len(points),
			"total", len(all),
		)

		if len(points) < klinesPerPage || lastOpen >= endMs {
			break
		}
		startMs = lastOpen + 1
	}

	return all, nil
}

// parseKlines decodifica [[openTime, open, high, low, close, ...], ...].
// Devuelve también el openTime de la última vela para paginar.
func parseKlines(body []byte) (domain.PriceSeries, int64, error) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, 0, fmt.Errorf("unexpected kline response format: %.120s", string(body))
	}

	rows := root.Array()
	points := make(domain.PriceSeries, 0, len(rows))
	var lastOpen int64
	for i, v := range rows {
		row := v.Array()
		if len(row) < 5 {
			return nil, 0, fmt.Errorf("kline %d: expected at least 5 fields, got %d", i, len(row))
		}
		openTime := row[0].Int()
		price := row[4].Float()
		if price <= 0 {
			return nil, 0, fmt.Errorf("kline %d: non-positive close %q: %w", i, row[4].String(), domain.ErrInvalidInput)
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(openTime).UTC(),
			Price:     price,
		})
		lastOpen = openTime
	}
	return points, lastOpen, nil
}

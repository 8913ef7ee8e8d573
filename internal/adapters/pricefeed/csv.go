package pricefeed

// csv.go: carga de cierres desde CSV de exchanges.
//
// Tolerante con la cabecera: busca la columna de tiempo entre
// timestamp/open_time/open_time_ms/time/date y la de cierre en close,
// sin distinguir mayúsculas y quitando espacios sobrantes ("close ").
// La salida queda en UTC, ordenada ascendente y sin deduplicar.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

var (
	timeColumns  = []string{"timestamp", "open_time", "open_time_ms", "time", "date"}
	closeColumns = []string{"close"}
)

// ReadCSV parsea un CSV con cabecera y devuelve la serie ordenada.
func ReadCSV(r io.Reader) (domain.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("pricefeed.ReadCSV: csv has no header: %w", domain.ErrInsufficientData)
	}
	if err != nil {
		return nil, fmt.Errorf("pricefeed.ReadCSV: read header: %w", err)
	}

	tsCol, err := pickColumn(header, timeColumns)
	if err != nil {
		return nil, fmt.Errorf("pricefeed.ReadCSV: %w", err)
	}
	closeCol, err := pickColumn(header, closeColumns)
	if err != nil {
		return nil, fmt.Errorf("pricefeed.ReadCSV: %w", err)
	}

	var series domain.PriceSeries
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pricefeed.ReadCSV: line %d: %w", line, err)
		}
		if len(rec) <= tsCol || len(rec) <= closeCol {
			return nil, fmt.Errorf("pricefeed.ReadCSV: line %d: expected at least %d fields, got %d: %w",
				line, max(tsCol, closeCol)+1, len(rec), domain.ErrInvalidInput)
		}

		ts, err := domain.ParseTimestamp(rec[tsCol])
		if err != nil {
			return nil, fmt.Errorf("pricefeed.ReadCSV: line %d: %w", line, err)
		}
		price, err := parsePrice(rec[closeCol])
		if err != nil {
			return nil, fmt.Errorf("pricefeed.ReadCSV: line %d: %w", line, err)
		}
		series = append(series, domain.PricePoint{Timestamp: ts, Price: price})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("pricefeed.ReadCSV: no rows loaded: %w", domain.ErrInsufficientData)
	}

	sortSeries(series)
	return series, nil
}

// pickColumn devuelve el índice de la primera columna candidata presente.
func pickColumn(header []string, candidates []string) (int, error) {
	norm := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := norm[key]; !dup {
			norm[key] = i
		}
	}
	for _, c := range candidates {
		if i, ok := norm[c]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("cannot find any of columns %v in %v: %w", candidates, header, domain.ErrInvalidInput)
}

func parsePrice(raw string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, domain.ErrInvalidInput)
	}
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("price must be positive and finite, got %v: %w", p, domain.ErrInvalidInput)
	}
	return p, nil
}

// sortSeries ordena por timestamp conservando el orden de los duplicados.
func sortSeries(s domain.PriceSeries) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

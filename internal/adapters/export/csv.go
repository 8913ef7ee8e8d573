package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/shopspring/decimal"
)

// Decimales por tipo de columna
const (
	pricePlaces = 4
	qtyPlaces   = 8
	ratioPlaces = 6
	usdPlaces   = 6
)

var eventsHeader = []string{
	"ts", "price", "anchor_before", "move", "k", "primary_now",
	"hedge_before", "hedge_target", "delta", "cash", "hedge_pnl", "cum_abs_delta",
}

var pricesHeader = []string{"timestamp", "close"}

// WriteEventsCSV escribe el log de rebalances: cabecera + una fila por evento.
// Sin eventos escribe solo la cabecera.
func WriteEventsCSV(w io.Writer, events []domain.RebalanceEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventsHeader); err != nil {
		return fmt.Errorf("export.WriteEventsCSV: header: %w", err)
	}
	for i, ev := range events {
		row := []string{
			ev.Timestamp.UTC().Format(time.RFC3339),
			fixed(ev.Price, pricePlaces),
			fixed(ev.AnchorBefore, pricePlaces),
			fixed(ev.Move, ratioPlaces),
			fixed(ev.K, ratioPlaces),
			fixed(ev.PrimaryNow, qtyPlaces),
			fixed(ev.HedgeBefore.Float(), qtyPlaces),
			fixed(ev.HedgeTarget.Float(), qtyPlaces),
			fixed(ev.Delta, qtyPlaces),
			fixed(ev.Cash, usdPlaces),
			fixed(ev.HedgePnL, usdPlaces),
			fixed(ev.CumulativeAbsDelta, qtyPlaces),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export.WriteEventsCSV: row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.WriteEventsCSV: flush: %w", err)
	}
	return nil
}

// WritePricesCSV escribe la serie en el formato que lee pricefeed:
// timestamp en epoch ms + close.
func WritePricesCSV(w io.Writer, series domain.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pricesHeader); err != nil {
		return fmt.Errorf("export.WritePricesCSV: header: %w", err)
	}
	for i, p := range series {
		row := []string{
			strconv.FormatInt(p.Timestamp.UnixMilli(), 10),
			decimal.NewFromFloat(p.Price).String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export.WritePricesCSV: row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.WritePricesCSV: flush: %w", err)
	}
	return nil
}

// WriteEventsFile crea (o sobrescribe) path con el log de rebalances.
func WriteEventsFile(path string, events []domain.RebalanceEvent) error {
	return writeFile(path, func(w io.Writer) error { return WriteEventsCSV(w, events) })
}

// WritePricesFile crea (o sobrescribe) path con la serie de precios.
func WritePricesFile(path string, series domain.PriceSeries) error {
	return writeFile(path, func(w io.Writer) error { return WritePricesCSV(w, series) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %q: %w", path, err)
	}
	slog.Debug("csv written", "path", path)
	return nil
}

// fixed formatea v con places decimales. NaN/Inf no pasan por decimal (panic).
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

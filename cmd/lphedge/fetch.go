package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/lphedge/config"
	"github.com/alejandrodnm/lphedge/internal/adapters/export"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/alejandrodnm/lphedge/internal/ports"
)

// runFetch descarga las velas de la ventana configurada y las escribe en path
// en el formato que luego lee el backtest.
func runFetch(ctx context.Context, kp ports.KlineProvider, fc config.FetchConfig, params domain.BacktestParams, path string) error {
	if params.Start.IsZero() {
		return fmt.Errorf("fetch needs data.start to bound the download: %w", domain.ErrInvalidInput)
	}
	slog.Info("fetching klines",
		"symbol", fc.Symbol,
		"interval", fc.Interval,
		"start", params.Start,
		"end", params.End,
	)

	series, err := kp.FetchKlines(ctx, fc.Symbol, fc.Interval, params.Start, params.End)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no klines for %s %s in window: %w", fc.Symbol, fc.Interval, domain.ErrInsufficientData)
	}

	if err := export.WritePricesFile(path, series); err != nil {
		return err
	}
	slog.Info("klines written", "path", path, "points", len(series),
		"from", series.First().Timestamp, "to", series.Last().Timestamp)
	return nil
}

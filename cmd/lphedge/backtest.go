package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/lphedge/internal/adapters/export"
	"github.com/alejandrodnm/lphedge/internal/backtest"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/alejandrodnm/lphedge/internal/ports"
)

// runBacktest carga la serie, corre un backtest y lo presenta.
// Con store != nil el run queda persistido; con eventsCSV != "" se exporta el log.
func runBacktest(
	ctx context.Context,
	params domain.BacktestParams,
	src ports.PriceSource,
	source string,
	store ports.ResultStore,
	notifier ports.Notifier,
	eventsCSV string,
) error {
	engine, err := backtest.New(params)
	if err != nil {
		return err
	}

	series, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	res, err := engine.Run(series)
	if err != nil {
		return err
	}

	if err := notifier.NotifyRun(ctx, res); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if eventsCSV != "" {
		if err := export.WriteEventsFile(eventsCSV, res.Events); err != nil {
			return err
		}
		slog.Info("rebalance events written", "path", eventsCSV, "events", len(res.Events))
	}

	if store != nil {
		id, err := store.SaveRun(ctx, domain.RunRecord{Source: source, Summary: res.Summary}, res.Events)
		if err != nil {
			return err
		}
		slog.Info("run stored", "run_id", id)
	}

	slog.Info("backtest complete",
		"rebalances", res.Summary.RebalanceCount,
		"total_pnl", res.Summary.TotalPnL,
	)
	return nil
}

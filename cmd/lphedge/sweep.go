package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/lphedge/config"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/alejandrodnm/lphedge/internal/ports"
	"github.com/alejandrodnm/lphedge/internal/sweep"
)

func runSweep(
	ctx context.Context,
	sc config.SweepConfig,
	params domain.BacktestParams,
	src ports.PriceSource,
	source string,
	store ports.ResultStore,
	notifier ports.Notifier,
) error {
	series, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	grid := sweep.Grid{Thresholds: sc.Thresholds, K0s: sc.K0s}
	slog.Info("sweep starting", "cells", grid.Size(), "points", len(series))

	rep, err := sweep.New(params, sc.Workers).Run(ctx, series, grid)
	if err != nil {
		return err
	}

	if err := notifier.NotifySweep(ctx, rep); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if sc.StoreCells && store != nil {
		stored := 0
		for _, cell := range rep.Cells {
			if !cell.OK() {
				continue
			}
			rec := domain.RunRecord{SweepID: rep.ID, Source: source, Summary: cell.Summary}
			if _, err := store.SaveRun(ctx, rec, nil); err != nil {
				return err
			}
			stored++
		}
		slog.Info("sweep cells stored", "sweep_id", rep.ID, "runs", stored)
	}

	slog.Info("sweep complete", "sweep_id", rep.ID, "skipped", len(rep.Skipped()))
	return nil
}

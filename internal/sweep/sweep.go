package sweep

// sweep.go: barrido 2D threshold × k0 sobre la misma serie.
//
// Cada celda construye su propio Engine, así que las celdas son independientes
// y se evalúan en paralelo con un pool acotado. Las celdas inválidas no abortan
// el barrido: se guardan con su error y se reportan como skipped.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/alejandrodnm/lphedge/internal/backtest"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Grid es el producto cartesiano a evaluar.
type Grid struct {
	Thresholds []float64
	K0s        []float64
}

// Size devuelve el número de celdas.
func (g Grid) Size() int { return len(g.Thresholds) * len(g.K0s) }

// Runner evalúa un Grid con los demás parámetros fijos.
type Runner struct {
	base    domain.BacktestParams
	workers int
}

// New crea un Runner. Si workers <= 0 usa runtime.NumCPU() × 2.
func New(base domain.BacktestParams, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	return &Runner{base: base, workers: workers}
}

// Run evalúa todas las celdas. Las celdas se devuelven en orden de grid
// (thresholds por fila, k0 por columna) sea cual sea el orden de ejecución.
// Solo devuelve error si el grid está vacío o el contexto se cancela.
func (r *Runner) Run(ctx context.Context, series domain.PriceSeries, grid Grid) (domain.SweepReport, error) {
	if grid.Size() == 0 {
		return domain.SweepReport{}, fmt.Errorf("sweep.Run: empty grid (%d thresholds × %d k0s): %w",
			len(grid.Thresholds), len(grid.K0s), domain.ErrInvalidInput)
	}

	rep := domain.SweepReport{
		ID:         uuid.NewString(),
		Thresholds: append([]float64(nil), grid.Thresholds...),
		K0s:        append([]float64(nil), grid.K0s...),
		Cells:      make([]domain.SweepCell, grid.Size()),
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, th := range rep.Thresholds {
		for j, k0 := range rep.K0s {
			idx := i*len(rep.K0s) + j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				// Cada goroutine escribe solo su índice
				rep.Cells[idx] = r.evaluate(series, th, k0)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return domain.SweepReport{}, fmt.Errorf("sweep.Run: %w", err)
	}

	slog.Debug("sweep complete",
		"sweep_id", rep.ID,
		"cells", len(rep.Cells),
		"skipped", len(rep.Skipped()),
		"workers", r.workers,
		"elapsed", time.Since(start),
	)
	return rep, nil
}

// evaluate corre un backtest con (threshold, k0) sobre la base.
func (r *Runner) evaluate(series domain.PriceSeries, threshold, k0 float64) domain.SweepCell {
	cell := domain.SweepCell{Threshold: threshold, K0: k0}

	params := r.base
	params.Threshold = threshold
	params.K0 = k0

	eng, err := backtest.New(params)
	if err != nil {
		cell.Err = err
		return cell
	}
	res, err := eng.Run(series)
	if err != nil {
		slog.Debug("sweep cell skipped", "threshold", threshold, "k0", k0, "err", err)
		cell.Err = err
		return cell
	}
	cell.Summary = res.Summary
	return cell
}

package ports

import (
	"context"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// NotifyRun muestra el resumen (y opcionalmente los eventos) de un run.
	NotifyRun(ctx context.Context, res domain.BacktestResult) error

	// NotifySweep muestra la matriz TotalPnL y el ranking de un sweep.
	NotifySweep(ctx context.Context, rep domain.SweepReport) error
}

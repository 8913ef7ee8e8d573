package ports

import (
	"context"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

// ResultStore persiste los runs del backtest y su log de rebalances.
type ResultStore interface {
	// SaveRun persiste el resumen y los eventos de un run. Devuelve el ID asignado.
	SaveRun(ctx context.Context, rec domain.RunRecord, events []domain.RebalanceEvent) (string, error)

	// GetRun devuelve un run por ID.
	GetRun(ctx context.Context, id string) (domain.RunRecord, error)

	// ListRuns devuelve los últimos runs, más recientes primero.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// GetEvents devuelve el log de rebalances de un run en orden temporal.
	GetEvents(ctx context.Context, runID string) ([]domain.RebalanceEvent, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

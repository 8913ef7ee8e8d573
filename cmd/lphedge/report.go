package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alejandrodnm/lphedge/internal/adapters/storage"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/alejandrodnm/lphedge/internal/ports"
)

type runPrinter interface {
	PrintRuns(runs []domain.RunRecord)
	PrintRun(rec domain.RunRecord, events []domain.RebalanceEvent)
}

// runReport lista los últimos limit runs guardados.
func runReport(ctx context.Context, store ports.ResultStore, p runPrinter, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	p.PrintRuns(runs)
	return nil
}

// runShow imprime un run guardado con su log de rebalances. Acepta el ID
// completo o el prefijo de 8 caracteres que muestra -report.
func runShow(ctx context.Context, store ports.ResultStore, p runPrinter, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("show: empty run id: %w", domain.ErrInvalidInput)
	}

	rec, err := store.GetRun(ctx, id)
	if errors.Is(err, storage.ErrRunNotFound) {
		rec, err = resolvePrefix(ctx, store, id)
	}
	if err != nil {
		return fmt.Errorf("show %q: %w", id, err)
	}

	events, err := store.GetEvents(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("show %q: %w", id, err)
	}
	p.PrintRun(rec, events)
	return nil
}

// resolvePrefix busca el único run cuyo ID empieza por prefix.
func resolvePrefix(ctx context.Context, store ports.ResultStore, prefix string) (domain.RunRecord, error) {
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return domain.RunRecord{}, err
	}
	var found []domain.RunRecord
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return domain.RunRecord{}, storage.ErrRunNotFound
	case 1:
		return found[0], nil
	default:
		return domain.RunRecord{}, fmt.Errorf("prefix matches %d runs: %w", len(found), domain.ErrInvalidInput)
	}
}

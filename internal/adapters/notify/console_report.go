package notify

import (
	"fmt"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// PrintRuns imprime el histórico de runs guardados, más recientes primero.
func (c *Console) PrintRuns(runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "\n  No stored runs.")
		return
	}

	fmt.Fprintf(c.out, "\n=== Stored runs (%d) ===\n", len(runs))
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Created", "Source", "Sweep", "Window", "TH", "K0", "Reb", "HedgePnL", "LPPnL", "TotalPnL")

	for _, r := range runs {
		s := r.Summary
		table.Append(
			shortID(r.ID),
			fmtTime(r.CreatedAt),
			truncate(r.Source, 24),
			shortID(r.SweepID),
			fmt.Sprintf("%s → %s", fmtTime(s.StartTime), fmtTime(s.EndTime)),
			fmt.Sprintf("%.2f", s.Threshold),
			fmt.Sprintf("%.2f", s.K0),
			fmt.Sprintf("%d", s.RebalanceCount),
			fmt.Sprintf("$%.2f", s.HedgePnL),
			fmt.Sprintf("$%.2f", s.LPPnL),
			fmt.Sprintf("$%.2f", s.TotalPnL),
		)
	}
	table.Render()
}

// PrintRun imprime un run guardado completo: cabecera, posición inicial,
// todos sus rebalances y el resumen.
func (c *Console) PrintRun(rec domain.RunRecord, events []domain.RebalanceEvent) {
	fmt.Fprintf(c.out, "\n=== Run %s ===\n", rec.ID)
	fmt.Fprintf(c.out, "  created      : %s\n", fmtTime(rec.CreatedAt))
	fmt.Fprintf(c.out, "  source       : %s\n", rec.Source)
	if rec.SweepID != "" {
		fmt.Fprintf(c.out, "  sweep        : %s\n", rec.SweepID)
	}

	c.printInitialPosition(rec.Summary)
	c.printEvents(events)
	c.printSummary(rec.Summary)
}

// shortID recorta un UUID a sus primeros 8 caracteres.
func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

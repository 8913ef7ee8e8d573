package notify

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// NotifySweep imprime la matriz TotalPnL (threshold × k0), el top-N y las
// celdas que no se pudieron evaluar.
func (c *Console) NotifySweep(_ context.Context, rep domain.SweepReport) error {
	if len(rep.Cells) == 0 {
		fmt.Fprintln(c.out, "\n  Empty sweep grid.")
		return nil
	}

	c.printMatrix(rep)
	c.printRanking(rep.Ranked())
	c.printSkipped(rep.Skipped())
	return nil
}

func (c *Console) printMatrix(rep domain.SweepReport) {
	fmt.Fprintf(c.out, "\n2D SWEEP: cell = TotalPnL (USD)  [%s]\n", shortID(rep.ID))

	header := make([]any, 0, len(rep.K0s)+1)
	header = append(header, `TH\K0`)
	for _, k := range rep.K0s {
		header = append(header, fmt.Sprintf("%.2f", k))
	}

	table := tablewriter.NewWriter(c.out)
	table.Header(header...)
	for i, th := range rep.Thresholds {
		row := make([]any, 0, len(rep.K0s)+1)
		row = append(row, fmt.Sprintf("%.2f", th))
		for j := range rep.K0s {
			cell := rep.Cell(i, j)
			if !cell.OK() {
				row = append(row, "skip")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", cell.Summary.TotalPnL))
		}
		table.Append(row...)
	}
	table.Render()
}

func (c *Console) printRanking(ranked []domain.SweepCell) {
	if len(ranked) == 0 {
		fmt.Fprintln(c.out, "\n  ⚠ No valid combinations.")
		return
	}
	n := min(c.topN, len(ranked))

	fmt.Fprintf(c.out, "\nTop %d (best TotalPnL first):\n", n)
	table := tablewriter.NewWriter(c.out)
	table.Header("Rank", "TH", "K0", "TotalPnL", "HedgePnL", "LPPnL", "Reb", "Cum|ΔH|")
	for i, cell := range ranked[:n] {
		s := cell.Summary
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", cell.Threshold),
			fmt.Sprintf("%.2f", cell.K0),
			fmt.Sprintf("%.2f", s.TotalPnL),
			fmt.Sprintf("%.2f", s.HedgePnL),
			fmt.Sprintf("%.2f", s.LPPnL),
			fmt.Sprintf("%d", s.RebalanceCount),
			fmt.Sprintf("%.4f", s.CumulativeAbsDelta),
		)
	}
	table.Render()
}

func (c *Console) printSkipped(skipped []domain.SweepCell) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(c.out, "\nSkipped %d combination(s):\n", len(skipped))
	for _, cell := range skipped {
		fmt.Fprintf(c.out, "  TH=%.2f K0=%.2f: %v\n", cell.Threshold, cell.K0, cell.Err)
	}
}

package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const defaultTopN = 10

// Console implementa ports.Notifier.
type Console struct {
	out        io.Writer
	showEvents bool
	topN       int
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(showEvents bool, topN int) *Console {
	return NewConsoleWriter(os.Stdout, showEvents, topN)
}

// NewConsoleWriter crea un notificador sobre w (tests, ficheros).
func NewConsoleWriter(w io.Writer, showEvents bool, topN int) *Console {
	if topN <= 0 {
		topN = defaultTopN
	}
	return &Console{out: w, showEvents: showEvents, topN: topN}
}

// NotifyRun imprime posición inicial, eventos (opcional) y resumen de un run.
func (c *Console) NotifyRun(_ context.Context, res domain.BacktestResult) error {
	s := res.Summary

	c.printInitialPosition(s)

	if c.showEvents {
		c.printEvents(res.Events)
	}

	c.printSummary(s)
	return nil
}

// printInitialPosition imprime la asignación inicial con el activo principal fijado.
func (c *Console) printInitialPosition(s domain.BacktestSummary) {
	fmt.Fprintf(c.out, "\n=== Initial Position (primary-fixed) ===\n")
	fmt.Fprintf(c.out, "  window       : %s → %s (%d points)\n",
		fmtTime(s.StartTime), fmtTime(s.EndTime), s.Points)
	fmt.Fprintf(c.out, "  price        : %.2f\n", s.InitialPrice)
	fmt.Fprintf(c.out, "  range        : [%.2f, %.2f]\n", s.Lower, s.Upper)
	fmt.Fprintf(c.out, "  liquidity    : %.6f\n", s.Liquidity)
	fmt.Fprintf(c.out, "  primary      : %.4f\n", s.PrimaryAmount)
	fmt.Fprintf(c.out, "  complementary: %.6f\n", s.InitialComplementary)
	fmt.Fprintf(c.out, "  threshold=%.4f  k0=%.2f\n", s.Threshold, s.K0)
}

// printEvents imprime el log de rebalances como tabla.
func (c *Console) printEvents(events []domain.RebalanceEvent) {
	if len(events) == 0 {
		fmt.Fprintln(c.out, "\n  No rebalances triggered.")
		return
	}

	fmt.Fprintf(c.out, "\n=== Rebalances (%d) ===\n", len(events))
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Price", "Anchor", "Move", "k", "Primary", "Hedge", "Target", "Delta", "Hedge PnL")

	for i, ev := range events {
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmtTime(ev.Timestamp),
			fmt.Sprintf("%.2f", ev.Price),
			fmt.Sprintf("%.2f", ev.AnchorBefore),
			fmt.Sprintf("%.2f%%", ev.Move*100),
			fmt.Sprintf("%.3f", ev.K),
			fmt.Sprintf("%.4f", ev.PrimaryNow),
			ev.HedgeBefore.String(),
			ev.HedgeTarget.String(),
			fmt.Sprintf("%+.4f", ev.Delta),
			fmt.Sprintf("$%.2f", ev.HedgePnL),
		)
	}
	table.Render()
}

// printSummary imprime el bloque de resultados sin fricción.
func (c *Console) printSummary(s domain.BacktestSummary) {
	fmt.Fprintf(c.out, "\n%s\n", rule)
	fmt.Fprintln(c.out, "SUMMARY (frictionless)")
	fmt.Fprintln(c.out, rule)
	fmt.Fprintf(c.out, "Rebalances: %d\n", s.RebalanceCount)
	fmt.Fprintf(c.out, "Cumulative |ΔH|: %.4f\n", s.CumulativeAbsDelta)
	fmt.Fprintf(c.out, "Hedge PnL: $%.2f\n", s.HedgePnL)
	fmt.Fprintf(c.out, "LP PnL (no fees): $%.2f\n", s.LPPnL)
	fmt.Fprintf(c.out, "Total PnL: $%.2f\n", s.TotalPnL)
	fmt.Fprintf(c.out, "Final price: $%.2f\n", s.FinalPrice)
	fmt.Fprintf(c.out, "Final hedge position: %s\n", s.FinalHedge)
	fmt.Fprintf(c.out, "LP start/end: $%.2f -> $%.2f\n", s.LPValueStart, s.LPValueEnd)
	fmt.Fprintln(c.out, rule)
}

const rule = "============================================================"

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

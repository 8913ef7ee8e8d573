package domain

import (
	"sort"
	"time"
)

// RunRecord es un run persistido: el resumen más los metadatos de dónde salió.
type RunRecord struct {
	ID        string
	SweepID   string // vacío si el run no pertenece a un sweep
	Source    string // fichero de datos o símbolo
	CreatedAt time.Time
	Summary   BacktestSummary
}

// SweepCell es una combinación (threshold, k0) del grid.
// Si Err != nil la combinación es inválida y Summary está vacío.
type SweepCell struct {
	Threshold float64
	K0        float64
	Summary   BacktestSummary
	Err       error
}

// OK indica si el run de la celda terminó sin error.
func (c SweepCell) OK() bool { return c.Err == nil }

// SweepReport agrupa todas las celdas de un sweep en orden de grid
// (thresholds por fila, k0 por columna).
type SweepReport struct {
	ID         string
	Thresholds []float64
	K0s        []float64
	Cells      []SweepCell
}

// Cell devuelve la celda (i, j) del grid.
func (r SweepReport) Cell(i, j int) SweepCell {
	return r.Cells[i*len(r.K0s)+j]
}

// Ranked devuelve las celdas válidas ordenadas por TotalPnL descendente.
// Empates: threshold ascendente, luego k0 ascendente.
func (r SweepReport) Ranked() []SweepCell {
	var ok []SweepCell
	for _, c := range r.Cells {
		if c.OK() {
			ok = append(ok, c)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		a, b := ok[i], ok[j]
		if a.Summary.TotalPnL != b.Summary.TotalPnL {
			return a.Summary.TotalPnL > b.Summary.TotalPnL
		}
		if a.Threshold != b.Threshold {
			return a.Threshold < b.Threshold
		}
		return a.K0 < b.K0
	})
	return ok
}

// Skipped devuelve las celdas que fallaron.
func (r SweepReport) Skipped() []SweepCell {
	var out []SweepCell
	for _, c := range r.Cells {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

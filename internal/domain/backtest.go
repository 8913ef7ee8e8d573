package domain

import (
	"fmt"
	"time"
)

// P0Mode decide de dónde sale el precio inicial P0.
type P0Mode string

const (
	P0FromData P0Mode = "from_data" // primer punto de la ventana filtrada
	P0Fixed    P0Mode = "fixed"     // valor externo BacktestParams.FixedP0
)

// BacktestParams es la configuración explícita de un run. No hay estado global:
// dos runs con los mismos params y la misma serie producen el mismo resultado.
type BacktestParams struct {
	Lower         float64
	Upper         float64
	PrimaryAmount float64 // activo principal que entra entero al pool
	K0            float64 // ratio de cobertura en el punto medio del rango
	Threshold     float64 // movimiento relativo desde el ancla que dispara rebalance

	Start time.Time // ventana inclusiva; cero = abierta
	End   time.Time

	P0Mode  P0Mode
	FixedP0 float64 // solo con P0Fixed
}

// Validate comprueba los escalares que no dependen de la serie.
func (p BacktestParams) Validate() error {
	if !finite(p.Lower, p.Upper, p.PrimaryAmount, p.K0, p.Threshold, p.FixedP0) {
		return fmt.Errorf("domain.BacktestParams: non-finite scalar (lower=%v upper=%v primary=%v k0=%v threshold=%v fixed_p0=%v): %w",
			p.Lower, p.Upper, p.PrimaryAmount, p.K0, p.Threshold, p.FixedP0, ErrInvalidInput)
	}
	if p.Lower <= 0 || p.Upper <= 0 {
		return fmt.Errorf("domain.BacktestParams: bounds must be positive (lower=%v upper=%v): %w", p.Lower, p.Upper, ErrInvalidInput)
	}
	if p.Lower >= p.Upper {
		return fmt.Errorf("domain.BacktestParams: lower %v >= upper %v: %w", p.Lower, p.Upper, ErrInvalidInput)
	}
	if p.PrimaryAmount <= 0 {
		return fmt.Errorf("domain.BacktestParams: primary amount must be positive, got %v: %w", p.PrimaryAmount, ErrInvalidInput)
	}
	if p.K0 < 0 || p.K0 > 1 {
		return fmt.Errorf("domain.BacktestParams: k0 must be in [0, 1], got %v: %w", p.K0, ErrInvalidInput)
	}
	if p.Threshold < 0 {
		return fmt.Errorf("domain.BacktestParams: threshold must be >= 0, got %v: %w", p.Threshold, ErrInvalidInput)
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return fmt.Errorf("domain.BacktestParams: end %s before start %s: %w",
			p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339), ErrInvalidInput)
	}
	switch p.P0Mode {
	case P0FromData:
	case P0Fixed:
		if p.FixedP0 <= 0 {
			return fmt.Errorf("domain.BacktestParams: fixed p0 must be positive, got %v: %w", p.FixedP0, ErrInvalidInput)
		}
	default:
		return fmt.Errorf("domain.BacktestParams: unknown p0 mode %q: %w", p.P0Mode, ErrInvalidInput)
	}
	return nil
}

// RebalanceEvent es una fila del log de rebalances. Inmutable tras crearse.
type RebalanceEvent struct {
	Timestamp    time.Time
	Price        float64
	AnchorBefore float64
	Move         float64 // |P − ancla| / ancla
	K            float64 // ratio objetivo k(P)
	PrimaryNow   float64 // activo principal dentro de la posición a P

	HedgeBefore HedgeQty
	HedgeTarget HedgeQty
	Delta       float64 // target − before

	Cash               float64 // caja tras ejecutar el delta
	HedgePnL           float64 // mark-to-market de la cobertura en este instante
	CumulativeAbsDelta float64 // Σ|delta| hasta este evento incluido
}

// BacktestSummary es el resultado agregado de un run.
type BacktestSummary struct {
	RebalanceCount     int
	CumulativeAbsDelta float64 // proxy de turnover, solo informativo

	HedgePnL float64
	LPPnL    float64
	TotalPnL float64 // HedgePnL + LPPnL

	FinalPrice   float64
	FinalHedge   HedgeQty
	LPValueStart float64
	LPValueEnd   float64

	StartTime time.Time
	EndTime   time.Time
	Points    int

	// Parámetros usados (eco)
	InitialPrice         float64
	Lower                float64
	Upper                float64
	Liquidity            float64
	PrimaryAmount        float64
	InitialComplementary float64
	Threshold            float64
	K0                   float64
}

// BacktestResult agrupa el log de eventos y el resumen de un run.
type BacktestResult struct {
	Events  []RebalanceEvent
	Summary BacktestSummary
}

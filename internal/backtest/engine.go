package backtest

// engine.go: simulación de la cobertura delta-neutral de una posición LP.
//
// Por cada run:
// 1. Filtra la ventana y resuelve P0 (primer punto o valor fijo)
// 2. Dimensiona la posición fijando el activo principal que entra al pool
// 3. Abre un short de primary·k0 y acredita la caja
// 4. Recorre la serie: si |P − ancla|/ancla >= threshold, lleva la cobertura
//    a −x(P)·k(P) y mueve el ancla a P. Si no, no toca nada.
// 5. Valora cobertura y LP al último precio
//
// Sin fees, slippage, funding ni gas.

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

// Engine ejecuta runs con unos parámetros fijos. Cada Run construye su propio
// HedgeState y LPPosition, así que un Engine se puede usar desde varias
// goroutines a la vez.
type Engine struct {
	params domain.BacktestParams
}

// New valida los parámetros y devuelve el motor.
func New(params domain.BacktestParams) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("backtest.New: %w", err)
	}
	return &Engine{params: params}, nil
}

// Params devuelve la configuración del motor.
func (e *Engine) Params() domain.BacktestParams {
	return e.params
}

// Run simula la estrategia sobre la serie. Cualquier error aborta el run sin
// resultado parcial.
func (e *Engine) Run(series domain.PriceSeries) (domain.BacktestResult, error) {
	p := e.params

	if err := series.Validate(); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: %w", err)
	}

	data := series.Window(p.Start, p.End)
	if len(data) < 2 {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: need at least 2 points in window, got %d: %w",
			len(data), domain.ErrInsufficientData)
	}

	p0 := resolveInitialPrice(p, data)

	position, err := domain.FixedPrimary(p.PrimaryAmount).Position(p0, p.Lower, p.Upper)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: size position at p0=%v: %w", p0, err)
	}
	initialComplementary, err := domain.RequiredComplementaryAmount(p0, p.Lower, p.Upper, p.PrimaryAmount)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: %w", err)
	}

	lpValueStart, err := position.Value(p0)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: lp value at p0: %w", err)
	}

	state := domain.OpenHedgeState(p.PrimaryAmount, p.K0, p0)

	slog.Debug("backtest configured",
		"points", len(data),
		"p0", p0,
		"lower", p.Lower,
		"upper", p.Upper,
		"liquidity", position.Liquidity(),
		"lp_value_start", lpValueStart,
		"initial_hedge", state.Position.Float(),
	)

	var (
		events    []domain.RebalanceEvent
		cumAbsDel float64
	)
	for _, pt := range data[1:] {
		ev, triggered, err := step(&state, position, p, pt, cumAbsDel)
		if err != nil {
			return domain.BacktestResult{}, fmt.Errorf("backtest.Run: tick %s: %w", pt.Timestamp.Format(time.RFC3339), err)
		}
		if !triggered {
			continue
		}
		cumAbsDel = ev.CumulativeAbsDelta
		events = append(events, ev)
	}

	last := data.Last()
	lpValueEnd, err := position.Value(last.Price)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: lp value at final price: %w", err)
	}

	hedgePnL := state.PnL(last.Price)
	lpPnL := lpValueEnd - lpValueStart

	summary := domain.BacktestSummary{
		RebalanceCount:     len(events),
		CumulativeAbsDelta: cumAbsDel,
		HedgePnL:           hedgePnL,
		LPPnL:              lpPnL,
		TotalPnL:           hedgePnL + lpPnL,
		FinalPrice:         last.Price,
		FinalHedge:         state.Position,
		LPValueStart:       lpValueStart,
		LPValueEnd:         lpValueEnd,
		StartTime:          data.First().Timestamp,
		EndTime:            last.Timestamp,
		Points:             len(data),

		InitialPrice:         p0,
		Lower:                p.Lower,
		Upper:                p.Upper,
		Liquidity:            position.Liquidity(),
		PrimaryAmount:        p.PrimaryAmount,
		InitialComplementary: initialComplementary,
		Threshold:            p.Threshold,
		K0:                   p.K0,
	}

	slog.Debug("backtest complete",
		"rebalances", summary.RebalanceCount,
		"hedge_pnl", summary.HedgePnL,
		"lp_pnl", summary.LPPnL,
		"total_pnl", summary.TotalPnL,
	)

	return domain.BacktestResult{Events: events, Summary: summary}, nil
}

// step procesa un tick. Solo muta state si el movimiento desde el ancla
// alcanza el umbral (borde incluido).
func step(
	state *domain.HedgeState,
	position domain.LPPosition,
	p domain.BacktestParams,
	pt domain.PricePoint,
	cumAbsDelta float64,
) (domain.RebalanceEvent, bool, error) {
	anchor := state.Anchor
	move := math.Abs(pt.Price-anchor) / anchor
	if move < p.Threshold {
		return domain.RebalanceEvent{}, false, nil
	}

	hedgeBefore := state.Position
	k := domain.TargetRatio(pt.Price, p.Lower, p.Upper, p.K0)

	primaryNow, _, err := position.Amounts(pt.Price)
	if err != nil {
		return domain.RebalanceEvent{}, false, err
	}

	target := domain.ShortQty(primaryNow * k)
	delta := state.Rebalance(target, pt.Price)
	cumAbsDelta += math.Abs(delta)

	return domain.RebalanceEvent{
		Timestamp:          pt.Timestamp,
		Price:              pt.Price,
		AnchorBefore:       anchor,
		Move:               move,
		K:                  k,
		PrimaryNow:         primaryNow,
		HedgeBefore:        hedgeBefore,
		HedgeTarget:        target,
		Delta:              delta,
		Cash:               state.Cash,
		HedgePnL:           state.PnL(pt.Price),
		CumulativeAbsDelta: cumAbsDelta,
	}, true, nil
}

func resolveInitialPrice(p domain.BacktestParams, data domain.PriceSeries) float64 {
	if p.P0Mode == domain.P0Fixed {
		return p.FixedP0
	}
	return data.First().Price
}

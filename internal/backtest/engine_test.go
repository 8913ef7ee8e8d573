package backtest_test

import (
	"math"
	"testing"
	"time"

	"github.com/alejandrodnm/lphedge/internal/backtest"
	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)

func hourly(prices ...float64) domain.PriceSeries {
	s := make(domain.PriceSeries, len(prices))
	for i, p := range prices {
		s[i] = domain.PricePoint{Timestamp: start.Add(time.Duration(i) * time.Hour), Price: p}
	}
	return s
}

// rising devuelve n puntos horarios lineales de from a to.
func rising(from, to float64, n int) domain.PriceSeries {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return hourly(prices...)
}

func defaultParams() domain.BacktestParams {
	return domain.BacktestParams{
		Lower:         2651,
		Upper:         3498,
		PrimaryAmount: 1.0,
		K0:            0.7,
		Threshold:     0.05,
		P0Mode:        domain.P0FromData,
	}
}

func run(t *testing.T, params domain.BacktestParams, series domain.PriceSeries) domain.BacktestResult {
	t.Helper()
	e, err := backtest.New(params)
	require.NoError(t, err)
	res, err := e.Run(series)
	require.NoError(t, err)
	return res
}

func TestRun_RisingScenario(t *testing.T) {
	series := rising(2900, 3200, 10)
	res := run(t, defaultParams(), series)
	s := res.Summary

	// 2900 → 3066.67 es el primer tick con movimiento >= 5%; después el ancla
	// pasa a 3066.67 y 3200 (+4.35%) ya no dispara.
	require.GreaterOrEqual(t, s.RebalanceCount, 1)
	require.Len(t, res.Events, s.RebalanceCount)
	assert.Equal(t, 1, s.RebalanceCount)
	assert.Equal(t, series[5].Timestamp, res.Events[0].Timestamp)
	assert.Equal(t, 2900.0, res.Events[0].AnchorBefore)

	assert.Equal(t, s.HedgePnL+s.LPPnL, s.TotalPnL)
	assert.Equal(t, 2900.0, s.InitialPrice)
	assert.Equal(t, 3200.0, s.FinalPrice)
	assert.Equal(t, 10, s.Points)
	assert.Equal(t, series[0].Timestamp, s.StartTime)
	assert.Equal(t, series[9].Timestamp, s.EndTime)
	assert.Equal(t, s.LPValueEnd-s.LPValueStart, s.LPPnL)
	assert.Equal(t, res.Events[0].HedgeTarget, s.FinalHedge)
}

func TestRun_AnchorMovesOnlyOnTriggers(t *testing.T) {
	params := defaultParams()
	series := hourly(3000, 3050, 3160, 3100, 3000, 2990, 2840, 2900, 3100, 3300, 3400)
	res := run(t, params, series)
	require.NotEmpty(t, res.Events)

	// Reconstruir el ancla tick a tick y comprobar que los disparos coinciden
	anchor := series[0].Price
	next := 0
	for _, pt := range series[1:] {
		move := math.Abs(pt.Price-anchor) / anchor
		if move < params.Threshold {
			if next < len(res.Events) {
				assert.NotEqual(t, pt.Timestamp, res.Events[next].Timestamp)
			}
			continue
		}
		require.Less(t, next, len(res.Events), "missing event at %s", pt.Timestamp)
		ev := res.Events[next]
		assert.Equal(t, pt.Timestamp, ev.Timestamp)
		assert.Equal(t, anchor, ev.AnchorBefore)
		assert.InDelta(t, move, ev.Move, 1e-15)
		anchor = pt.Price
		next++
	}
	assert.Equal(t, len(res.Events), next)

	// Ancla de cada evento = precio del evento anterior
	prev := series[0].Price
	for _, ev := range res.Events {
		assert.Equal(t, prev, ev.AnchorBefore)
		prev = ev.Price
	}
}

func TestRun_EventAccounting(t *testing.T) {
	params := defaultParams()
	series := hourly(3000, 3200, 2900, 3400, 2700, 3100)
	res := run(t, params, series)
	require.NotEmpty(t, res.Events)

	pos, err := domain.FixedPrimary(params.PrimaryAmount).Position(3000, params.Lower, params.Upper)
	require.NoError(t, err)

	hedge := domain.ShortQty(params.PrimaryAmount * params.K0)
	cash := params.PrimaryAmount * params.K0 * 3000
	cum := 0.0
	for _, ev := range res.Events {
		x, _, err := pos.Amounts(ev.Price)
		require.NoError(t, err)
		k := domain.TargetRatio(ev.Price, params.Lower, params.Upper, params.K0)

		assert.Equal(t, hedge, ev.HedgeBefore)
		assert.InDelta(t, k, ev.K, 1e-12)
		assert.InDelta(t, x, ev.PrimaryNow, 1e-12)
		assert.InDelta(t, -(x * k), ev.HedgeTarget.Float(), 1e-12)
		assert.InDelta(t, ev.HedgeTarget.Float()-ev.HedgeBefore.Float(), ev.Delta, 1e-12)

		cash -= ev.Delta * ev.Price
		assert.InDelta(t, cash, ev.Cash, 1e-6)
		assert.InDelta(t, ev.Cash+ev.HedgeTarget.Float()*ev.Price, ev.HedgePnL, 1e-6)

		cum += math.Abs(ev.Delta)
		assert.InDelta(t, cum, ev.CumulativeAbsDelta, 1e-9)
		hedge = ev.HedgeTarget
	}

	s := res.Summary
	assert.InDelta(t, cum, s.CumulativeAbsDelta, 1e-9)
	assert.InDelta(t, s.HedgePnL+s.LPPnL, s.TotalPnL, 1e-9)
	assert.InDelta(t, cash+s.FinalHedge.Float()*s.FinalPrice, s.HedgePnL, 1e-6)
}

func TestRun_CumulativeDeltaNonDecreasing(t *testing.T) {
	series := hourly(3000, 3300, 2800, 3350, 2700, 3450, 2660, 3000, 3200)
	res := run(t, defaultParams(), series)
	require.NotEmpty(t, res.Events)

	prev := 0.0
	sum := 0.0
	for _, ev := range res.Events {
		assert.GreaterOrEqual(t, ev.CumulativeAbsDelta, prev)
		prev = ev.CumulativeAbsDelta
		sum += math.Abs(ev.Delta)
	}
	assert.InDelta(t, sum, res.Summary.CumulativeAbsDelta, 1e-9)
}

func TestRun_Deterministic(t *testing.T) {
	series := hourly(3000, 3200, 2900, 3400, 2700, 3100, 3150, 2950)
	e, err := backtest.New(defaultParams())
	require.NoError(t, err)

	r1, err := e.Run(series)
	require.NoError(t, err)
	r2, err := e.Run(series)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestRun_InitialHedge(t *testing.T) {
	// Sin disparos: la cobertura es el short inicial de primary·k0
	res := run(t, defaultParams(), hourly(3000, 3010, 3020))
	s := res.Summary
	assert.Equal(t, 0, s.RebalanceCount)
	assert.Empty(t, res.Events)
	assert.Equal(t, domain.ShortQty(0.7), s.FinalHedge)
	// cash = 0.7·3000, hedge pnl = 2100 − 0.7·3020 = −14
	assert.InDelta(t, -14.0, s.HedgePnL, 1e-9)
	assert.Equal(t, 0.0, s.CumulativeAbsDelta)
}

func TestRun_ThresholdBoundaryInclusive(t *testing.T) {
	params := defaultParams()
	params.Lower, params.Upper = 50, 200
	params.Threshold = 0.05

	// |105 − 100| / 100 == 0.05 exacto → dispara
	res := run(t, params, hourly(100, 105))
	assert.Equal(t, 1, res.Summary.RebalanceCount)

	res = run(t, params, hourly(100, 104.9))
	assert.Equal(t, 0, res.Summary.RebalanceCount)
}

func TestRun_ZeroThresholdRebalancesEveryTick(t *testing.T) {
	params := defaultParams()
	params.Threshold = 0
	series := hourly(3000, 3000, 3001, 2999)
	res := run(t, params, series)
	assert.Equal(t, len(series)-1, res.Summary.RebalanceCount)
}

func TestRun_BelowRangeFullyHedged(t *testing.T) {
	params := defaultParams()
	res := run(t, params, hourly(3000, 2500))
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, 1.0, ev.K)
	lower, upper := params.Lower, params.Upper
	xMax := res.Summary.Liquidity * (1/math.Sqrt(lower) - 1/math.Sqrt(upper))
	assert.InDelta(t, -xMax, ev.HedgeTarget.Float(), 1e-9)
}

func TestRun_AboveRangeUnhedged(t *testing.T) {
	res := run(t, defaultParams(), hourly(3000, 3600))
	require.Len(t, res.Events, 1)
	assert.Equal(t, 0.0, res.Events[0].K)
	assert.Equal(t, 0.0, res.Events[0].HedgeTarget.Magnitude())
	assert.InDelta(t, 0.7, res.Events[0].Delta, 1e-12)
}

func TestRun_FixedInitialPrice(t *testing.T) {
	params := defaultParams()
	params.P0Mode = domain.P0Fixed
	params.FixedP0 = 3150

	res := run(t, params, hourly(2900, 2950, 3000))
	s := res.Summary
	assert.Equal(t, 3150.0, s.InitialPrice)

	// Ancla inicial = P0 fijo: 2950 está a −6.3% de 3150 → dispara
	require.NotEmpty(t, res.Events)
	assert.Equal(t, 3150.0, res.Events[0].AnchorBefore)

	want, err := domain.RequiredComplementaryAmount(3150, params.Lower, params.Upper, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, want, s.InitialComplementary, 1e-9)
}

func TestRun_Window(t *testing.T) {
	params := defaultParams()
	series := hourly(2000, 3000, 3100, 3200, 5000)
	params.Start = series[1].Timestamp
	params.End = series[3].Timestamp

	res := run(t, params, series)
	assert.Equal(t, 3, res.Summary.Points)
	assert.Equal(t, 3000.0, res.Summary.InitialPrice)
	assert.Equal(t, 3200.0, res.Summary.FinalPrice)
}

func TestRun_Errors(t *testing.T) {
	e, err := backtest.New(defaultParams())
	require.NoError(t, err)

	_, err = e.Run(hourly(3000))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = e.Run(nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	// P0 fuera del rango
	_, err = e.Run(hourly(2600, 3000))
	assert.ErrorIs(t, err, domain.ErrDegenerateRange)

	// P0 en el borde
	_, err = e.Run(hourly(2651, 3000))
	assert.ErrorIs(t, err, domain.ErrDegenerateRange)

	_, err = e.Run(hourly(3000, -1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	params := defaultParams()
	params.Start = start.Add(100 * time.Hour)
	e2, err := backtest.New(params)
	require.NoError(t, err)
	_, err = e2.Run(hourly(3000, 3100))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestNew_InvalidParams(t *testing.T) {
	params := defaultParams()
	params.Upper = params.Lower
	_, err := backtest.New(params)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	e, err := backtest.New(defaultParams())
	require.NoError(t, err)
	assert.Equal(t, defaultParams(), e.Params())
}

func TestNew_RejectsNonFiniteParams(t *testing.T) {
	cases := map[string]func(*domain.BacktestParams){
		"nan lower":     func(p *domain.BacktestParams) { p.Lower = math.NaN() },
		"inf upper":     func(p *domain.BacktestParams) { p.Upper = math.Inf(1) },
		"nan primary":   func(p *domain.BacktestParams) { p.PrimaryAmount = math.NaN() },
		"inf primary":   func(p *domain.BacktestParams) { p.PrimaryAmount = math.Inf(1) },
		"nan k0":        func(p *domain.BacktestParams) { p.K0 = math.NaN() },
		"nan threshold": func(p *domain.BacktestParams) { p.Threshold = math.NaN() },
		"inf threshold": func(p *domain.BacktestParams) { p.Threshold = math.Inf(1) },
		"inf fixed p0": func(p *domain.BacktestParams) {
			p.P0Mode = domain.P0Fixed
			p.FixedP0 = math.Inf(1)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := defaultParams()
			mutate(&params)
			_, err := backtest.New(params)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRun_RejectsNonFinitePrices(t *testing.T) {
	e, err := backtest.New(defaultParams())
	require.NoError(t, err)

	_, err = e.Run(hourly(3000, math.Inf(1), 3100))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.Run(hourly(3000, math.NaN()))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

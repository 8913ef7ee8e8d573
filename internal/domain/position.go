package domain

// position.go: matemática de una posición de liquidez concentrada (estilo Uniswap v3).
//
// Convención:
//   - x = activo principal (p.ej. ETH), y = activo complementario (p.ej. USDT)
//   - P = precio de x expresado en y
//   - dentro de [Plower, Pupper] la liquidez L es constante
//
// Sin fees: el valor de la posición depende solo de P.

import (
	"fmt"
	"math"
)

// Amounts devuelve la composición (x, y) de la posición a precio P.
//
// Tres regímenes, con los bordes incluidos:
//
//	P <= Plower:          x = L·(1/√Pl − 1/√Pu), y = 0
//	Plower < P < Pupper:  x = L·(1/√P − 1/√Pu),  y = L·(√P − √Pl)
//	P >= Pupper:          x = 0,                 y = L·(√Pu − √Pl)
func Amounts(price, lower, upper, liquidity float64) (x, y float64, err error) {
	if err := validatePosition(price, lower, upper, liquidity); err != nil {
		return 0, 0, fmt.Errorf("domain.Amounts: %w", err)
	}

	sqrtP := math.Sqrt(price)
	sqrtPl := math.Sqrt(lower)
	sqrtPu := math.Sqrt(upper)

	switch {
	case price <= lower:
		return liquidity * (1/sqrtPl - 1/sqrtPu), 0, nil
	case price < upper:
		return liquidity * (1/sqrtP - 1/sqrtPu), liquidity * (sqrtP - sqrtPl), nil
	default:
		return 0, liquidity * (sqrtPu - sqrtPl), nil
	}
}

// Value devuelve el valor total de la posición en unidades del activo complementario: x·P + y.
func Value(price, lower, upper, liquidity float64) (float64, error) {
	x, y, err := Amounts(price, lower, upper, liquidity)
	if err != nil {
		return 0, fmt.Errorf("domain.Value: %w", err)
	}
	return x*price + y, nil
}

// LiquidityFromValue calcula L tal que Value(P0, ...) == value.
//
// Fórmula cerrada: valuePerL = 2√P0 − P0/√Pu − √Pl, L = value / valuePerL.
// Exige Plower < P0 < Pupper estricto: en los bordes la fórmula degenera.
func LiquidityFromValue(p0, lower, upper, value float64) (float64, error) {
	if !finite(p0, lower, upper, value) {
		return 0, fmt.Errorf("domain.LiquidityFromValue: non-finite input (p0=%v lower=%v upper=%v value=%v): %w",
			p0, lower, upper, value, ErrInvalidInput)
	}
	if p0 <= 0 || lower <= 0 || upper <= 0 {
		return 0, fmt.Errorf("domain.LiquidityFromValue: prices must be positive (p0=%v lower=%v upper=%v): %w",
			p0, lower, upper, ErrInvalidInput)
	}
	if lower >= upper {
		return 0, fmt.Errorf("domain.LiquidityFromValue: lower %v >= upper %v: %w", lower, upper, ErrInvalidInput)
	}
	if value <= 0 {
		return 0, fmt.Errorf("domain.LiquidityFromValue: value must be positive, got %v: %w", value, ErrInvalidInput)
	}
	if !(lower < p0 && p0 < upper) {
		return 0, fmt.Errorf("domain.LiquidityFromValue: p0=%v must be strictly within (%v, %v): %w",
			p0, lower, upper, ErrDegenerateRange)
	}

	valuePerL := 2*math.Sqrt(p0) - p0/math.Sqrt(upper) - math.Sqrt(lower)
	if valuePerL <= 0 {
		return 0, fmt.Errorf("domain.LiquidityFromValue: value per unit of liquidity %v <= 0: %w",
			valuePerL, ErrDegenerateRange)
	}
	return value / valuePerL, nil
}

// LPPosition es una posición de liquidez concentrada. Inmutable: se crea una vez
// al inicio de la simulación y no se modifica.
type LPPosition struct {
	liquidity float64
	lower     float64
	upper     float64
}

// NewLPPosition valida L > 0 y 0 < lower < upper.
func NewLPPosition(liquidity, lower, upper float64) (LPPosition, error) {
	if !finite(liquidity, lower, upper) {
		return LPPosition{}, fmt.Errorf("domain.NewLPPosition: non-finite input (liquidity=%v lower=%v upper=%v): %w",
			liquidity, lower, upper, ErrInvalidInput)
	}
	if liquidity <= 0 {
		return LPPosition{}, fmt.Errorf("domain.NewLPPosition: liquidity must be positive, got %v: %w", liquidity, ErrInvalidInput)
	}
	if lower <= 0 || upper <= 0 {
		return LPPosition{}, fmt.Errorf("domain.NewLPPosition: bounds must be positive (lower=%v upper=%v): %w", lower, upper, ErrInvalidInput)
	}
	if lower >= upper {
		return LPPosition{}, fmt.Errorf("domain.NewLPPosition: lower %v >= upper %v: %w", lower, upper, ErrInvalidInput)
	}
	return LPPosition{liquidity: liquidity, lower: lower, upper: upper}, nil
}

// LPPositionFromValue crea la posición cuyo valor a P0 es value (sizing por valor).
func LPPositionFromValue(p0, lower, upper, value float64) (LPPosition, error) {
	l, err := LiquidityFromValue(p0, lower, upper, value)
	if err != nil {
		return LPPosition{}, err
	}
	return NewLPPosition(l, lower, upper)
}

func (p LPPosition) Liquidity() float64 { return p.liquidity }
func (p LPPosition) Lower() float64     { return p.lower }
func (p LPPosition) Upper() float64     { return p.upper }

// Amounts devuelve (x, y) a precio P.
func (p LPPosition) Amounts(price float64) (x, y float64, err error) {
	return Amounts(price, p.lower, p.upper, p.liquidity)
}

// Value devuelve x·P + y a precio P.
func (p LPPosition) Value(price float64) (float64, error) {
	return Value(price, p.lower, p.upper, p.liquidity)
}

func validatePosition(price, lower, upper, liquidity float64) error {
	if !finite(price, lower, upper, liquidity) {
		return fmt.Errorf("non-finite input (price=%v lower=%v upper=%v liquidity=%v): %w",
			price, lower, upper, liquidity, ErrInvalidInput)
	}
	if price <= 0 || lower <= 0 || upper <= 0 {
		return fmt.Errorf("prices must be positive (price=%v lower=%v upper=%v): %w", price, lower, upper, ErrInvalidInput)
	}
	if liquidity <= 0 {
		return fmt.Errorf("liquidity must be positive, got %v: %w", liquidity, ErrInvalidInput)
	}
	if lower >= upper {
		return fmt.Errorf("lower %v >= upper %v: %w", lower, upper, ErrInvalidInput)
	}
	return nil
}

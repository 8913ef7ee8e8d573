package domain

// allocation.go: sizing inicial de la posición.
//
// Dos convenciones distintas conviven y NO son intercambiables:
//   - FixedPrimary: la cantidad de activo principal debe entrar entera al pool.
//     L = x / (1/√P − 1/√Pu), y = L·(√P − √Pl). Es la que usa el motor.
//   - FixedValue: el valor total a P0 está fijado (ver LiquidityFromValue).

import (
	"fmt"
	"math"
)

// LiquidityForPrimary deriva L para que la posición contenga exactamente
// primary unidades de activo principal a precio price.
func LiquidityForPrimary(price, lower, upper, primary float64) (float64, error) {
	if err := validateAllocation(price, lower, upper, primary); err != nil {
		return 0, fmt.Errorf("domain.LiquidityForPrimary: %w", err)
	}

	denom := 1/math.Sqrt(price) - 1/math.Sqrt(upper)
	if denom <= 0 {
		return 0, fmt.Errorf("domain.LiquidityForPrimary: 1/√price − 1/√upper = %v <= 0: %w", denom, ErrDegenerateRange)
	}
	return primary / denom, nil
}

// RequiredComplementaryAmount devuelve cuánto activo complementario hay que
// aportar junto a primary unidades de activo principal a precio price.
//
// Monotonía (con los otros dos fijos):
//   - crece con price
//   - decrece al subir upper (rango más ancho → menos complementario)
//   - crece al bajar lower
func RequiredComplementaryAmount(price, lower, upper, primary float64) (float64, error) {
	l, err := LiquidityForPrimary(price, lower, upper, primary)
	if err != nil {
		return 0, fmt.Errorf("domain.RequiredComplementaryAmount: %w", err)
	}
	return l * (math.Sqrt(price) - math.Sqrt(lower)), nil
}

func validateAllocation(price, lower, upper, primary float64) error {
	if !finite(price, lower, upper, primary) {
		return fmt.Errorf("non-finite input (price=%v lower=%v upper=%v primary=%v): %w",
			price, lower, upper, primary, ErrInvalidInput)
	}
	if price <= 0 || lower <= 0 || upper <= 0 {
		return fmt.Errorf("prices must be positive (price=%v lower=%v upper=%v): %w", price, lower, upper, ErrInvalidInput)
	}
	if lower >= upper {
		return fmt.Errorf("lower %v >= upper %v: %w", lower, upper, ErrInvalidInput)
	}
	if primary <= 0 {
		return fmt.Errorf("primary amount must be positive, got %v: %w", primary, ErrInvalidInput)
	}
	if !(lower < price && price < upper) {
		return fmt.Errorf("price=%v must be strictly within (%v, %v): %w", price, lower, upper, ErrDegenerateRange)
	}
	return nil
}

// SizingKind identifica la convención de sizing.
type SizingKind int

const (
	SizingFixedPrimary SizingKind = iota
	SizingFixedValue
)

// String devuelve el nombre de la convención.
func (k SizingKind) String() string {
	switch k {
	case SizingFixedPrimary:
		return "fixed_primary"
	case SizingFixedValue:
		return "fixed_value"
	default:
		return "unknown"
	}
}

// SizingPolicy es una variante etiquetada: Amount es cantidad de activo
// principal (FixedPrimary) o valor en complementario (FixedValue).
type SizingPolicy struct {
	Kind   SizingKind
	Amount float64
}

// FixedPrimary fija la cantidad de activo principal que entra al pool.
func FixedPrimary(amount float64) SizingPolicy {
	return SizingPolicy{Kind: SizingFixedPrimary, Amount: amount}
}

// FixedValue fija el valor total de la posición a P0.
func FixedValue(value float64) SizingPolicy {
	return SizingPolicy{Kind: SizingFixedValue, Amount: value}
}

// Liquidity resuelve L a precio p0 según la convención.
func (s SizingPolicy) Liquidity(p0, lower, upper float64) (float64, error) {
	switch s.Kind {
	case SizingFixedPrimary:
		return LiquidityForPrimary(p0, lower, upper, s.Amount)
	case SizingFixedValue:
		return LiquidityFromValue(p0, lower, upper, s.Amount)
	default:
		return 0, fmt.Errorf("domain.SizingPolicy: unknown kind %d: %w", s.Kind, ErrInvalidInput)
	}
}

// Position construye la LPPosition inmutable a precio p0.
func (s SizingPolicy) Position(p0, lower, upper float64) (LPPosition, error) {
	l, err := s.Liquidity(p0, lower, upper)
	if err != nil {
		return LPPosition{}, err
	}
	return NewLPPosition(l, lower, upper)
}

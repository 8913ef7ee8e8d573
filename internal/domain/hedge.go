package domain

import "fmt"

// TargetRatio devuelve el ratio de cobertura objetivo k(P) ∈ [0, 1].
//
// Lineal a trozos:
//   - P <= Plower → 1.0
//   - P == (Plower+Pupper)/2 → k0
//   - P >= Pupper → 0.0
//
// Con k0 != 0.5 la rampa es asimétrica.
func TargetRatio(price, lower, upper, k0 float64) float64 {
	if price <= lower {
		return 1.0
	}
	if price >= upper {
		return 0.0
	}

	mid := (lower + upper) / 2
	if price <= mid {
		return 1.0 - (1.0-k0)*(price-lower)/(mid-lower)
	}
	return k0 - k0*(price-mid)/(upper-mid)
}

// HedgeQty es una cantidad firmada de activo principal en la cobertura.
// Invariante: negativo = short, positivo = long, cero = sin cobertura.
type HedgeQty float64

// ShortQty devuelve un short de |qty| unidades (siempre <= 0).
func ShortQty(qty float64) HedgeQty {
	if qty == 0 {
		return 0
	}
	if qty < 0 {
		qty = -qty
	}
	return HedgeQty(-qty)
}

// Float devuelve la cantidad firmada.
func (h HedgeQty) Float() float64 { return float64(h) }

// IsShort indica si la cobertura está corta.
func (h HedgeQty) IsShort() bool { return h < 0 }

// Magnitude devuelve el tamaño absoluto.
func (h HedgeQty) Magnitude() float64 {
	if h < 0 {
		return float64(-h)
	}
	return float64(h)
}

// Direction devuelve "short", "long" o "flat".
func (h HedgeQty) Direction() string {
	switch {
	case h < 0:
		return "short"
	case h > 0:
		return "long"
	default:
		return "flat"
	}
}

// MarkToMarket valora la cantidad a precio P (negativo si está corta).
func (h HedgeQty) MarkToMarket(price float64) float64 {
	return float64(h) * price
}

// String formatea la cantidad con su dirección.
func (h HedgeQty) String() string {
	return fmt.Sprintf("%.6f (%s)", float64(h), h.Direction())
}

// HedgeState es el estado mutable de una simulación. Lo posee en exclusiva el
// bucle de control de un run; nunca se comparte entre runs.
type HedgeState struct {
	Position HedgeQty
	Cash     float64
	Anchor   float64 // precio del último rebalance
}

// OpenHedgeState abre el short inicial de primary·k0 a precio p0 y acredita la caja.
func OpenHedgeState(primary, k0, p0 float64) HedgeState {
	short := primary * k0
	return HedgeState{
		Position: ShortQty(short),
		Cash:     short * p0,
		Anchor:   p0,
	}
}

// Rebalance lleva la posición a target a precio P. Devuelve el delta aplicado.
// delta > 0 recompra short (cuesta caja), delta < 0 amplía el short (acredita caja).
func (s *HedgeState) Rebalance(target HedgeQty, price float64) float64 {
	delta := float64(target - s.Position)
	s.Cash -= delta * price
	s.Position = target
	s.Anchor = price
	return delta
}

// PnL es el mark-to-market de la cobertura: caja + posición valorada a P.
func (s HedgeState) PnL(price float64) float64 {
	return s.Cash + s.Position.MarkToMarket(price)
}

package domain

import (
	"errors"
	"math"
)

// Taxonomía de errores del motor. Todos los errores que devuelve el paquete
// (y internal/backtest) envuelven uno de estos centinelas con %w, así que los
// llamadores usan errors.Is para decidir si una combinación de parámetros es
// inválida.
var (
	// ErrInvalidInput: precio, liquidez o cantidad no positivos o no finitos
	// (NaN, ±Inf), o Plower >= Pupper.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateRange: el denominador de una fórmula de sizing es <= 0
	// (precio pegado a un límite o fuera del rango).
	ErrDegenerateRange = errors.New("degenerate range")

	// ErrInsufficientData: menos de 2 puntos de precio en la ventana pedida.
	ErrInsufficientData = errors.New("insufficient data")
)

// finite es true si ningún valor es NaN ni ±Inf. Las comparaciones con NaN
// siempre son false, así que los chequeos de signo no bastan.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

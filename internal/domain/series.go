package domain

import (
	"fmt"
	"time"
)

// PricePoint es un cierre de precio en UTC.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// PriceSeries es una serie ordenada de menor a mayor timestamp.
// Los timestamps repetidos se aceptan: la ingesta no deduplica.
type PriceSeries []PricePoint

// Validate comprueba precios positivos y orden no decreciente.
func (s PriceSeries) Validate() error {
	for i, p := range s {
		if p.Price <= 0 || !finite(p.Price) {
			return fmt.Errorf("domain.PriceSeries: point %d has non-positive or non-finite price %v: %w", i, p.Price, ErrInvalidInput)
		}
		if i > 0 && p.Timestamp.Before(s[i-1].Timestamp) {
			return fmt.Errorf("domain.PriceSeries: point %d (%s) is before point %d (%s): %w",
				i, p.Timestamp.Format(time.RFC3339), i-1, s[i-1].Timestamp.Format(time.RFC3339), ErrInvalidInput)
		}
	}
	return nil
}

// Window devuelve los puntos con start <= ts <= end. Un time.Time cero deja
// el extremo abierto. Comparte el array subyacente con s.
func (s PriceSeries) Window(start, end time.Time) PriceSeries {
	lo := 0
	if !start.IsZero() {
		for lo < len(s) && s[lo].Timestamp.Before(start) {
			lo++
		}
	}
	hi := len(s)
	if !end.IsZero() {
		for hi > lo && s[hi-1].Timestamp.After(end) {
			hi--
		}
	}
	return s[lo:hi]
}

// First devuelve el primer punto. La serie no puede estar vacía.
func (s PriceSeries) First() PricePoint { return s[0] }

// Last devuelve el último punto. La serie no puede estar vacía.
func (s PriceSeries) Last() PricePoint { return s[len(s)-1] }

package ports

import (
	"context"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

// PriceSource entrega una serie de precios ya normalizada: UTC, ordenada
// ascendente, precios positivos. No deduplica timestamps.
type PriceSource interface {
	Load(ctx context.Context) (domain.PriceSeries, error)
}

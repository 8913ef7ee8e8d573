package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

// KlineProvider descarga cierres históricos de un exchange.
type KlineProvider interface {
	// FetchKlines devuelve los cierres de symbol/interval con open time en [start, end].
	// Pagina automáticamente hasta cubrir el rango.
	FetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) (domain.PriceSeries, error)
}

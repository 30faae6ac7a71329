package ports

import (
	"context"
	"net/http"

	"github.com/alejandrodnm/profitcalc/internal/domain"
)

// Fetcher hace los requests de red del cache manager offline.
type Fetcher interface {
	// Fetch ejecuta req y devuelve la respuesta leída completa.
	// Un status no-2xx no es error; solo lo son los fallos de transporte.
	Fetch(ctx context.Context, req *http.Request) (domain.CachedResponse, error)
}

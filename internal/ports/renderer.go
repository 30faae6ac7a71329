package ports

import (
	"context"

	"github.com/alejandrodnm/profitcalc/internal/domain"
)

// Renderer presenta un resultado al usuario.
type Renderer interface {
	// Render muestra el resultado, su tier y el breakdown de costos.
	Render(ctx context.Context, res domain.Result) error
}

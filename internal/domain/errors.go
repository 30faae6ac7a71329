package domain

import "errors"

// Errores de validación del motor de cálculo.
var (
	ErrInvalidRange = errors.New("invalid range")
	ErrMissingPrice = errors.New("missing selling price")
)

// Errores del solver de precio sugerido.
var (
	ErrInvalidCost         = errors.New("invalid cost price")
	ErrInvalidProfitTarget = errors.New("desired profit must be between 0 and 100")
	ErrUnsolvable          = errors.New("no positive price satisfies fee and profit target")
)

// ErrInvalidRecord: feedback o suscripción rechazados por validación.
var ErrInvalidRecord = errors.New("invalid record")

// Errores de infraestructura. Nunca llegan al usuario como fallo del cálculo.
var (
	ErrStorageFailure = errors.New("storage failure")
	ErrNetworkFailure = errors.New("network failure")
	ErrInstallFailure = errors.New("install failure")
)

// IsValidationError devuelve true si err es un rechazo de input (no un fallo del sistema).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrMissingPrice) ||
		errors.Is(err, ErrInvalidCost) ||
		errors.Is(err, ErrInvalidProfitTarget) ||
		errors.Is(err, ErrUnsolvable) ||
		errors.Is(err, ErrInvalidRecord)
}

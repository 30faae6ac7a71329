package ports

import (
	"context"
	"errors"
)

// ErrNotFound lo devuelve un KVStore cuando la clave no existe.
var ErrNotFound = errors.New("key not found")

// KVStore es el backend byte a byte del gateway de persistencia.
// Las implementaciones sí devuelven errores; el gateway los absorbe.
type KVStore interface {
	// Get devuelve el valor guardado en key, o ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put guarda value en key, reemplazando lo anterior.
	Put(ctx context.Context, key string, value []byte) error

	// Close libera la conexión subyacente.
	Close() error
}

// Gateway guarda y carga valores serializables por clave.
// Nunca propaga errores: un fallo se reporta como false.
type Gateway interface {
	// Save serializa value y lo guarda en key. Devuelve false si no se pudo.
	Save(ctx context.Context, key string, value any) bool

	// Load decodifica el valor de key en out. Devuelve false si no existe o falló.
	Load(ctx context.Context, key string, out any) bool
}

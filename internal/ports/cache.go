package ports

import (
	"context"

	"github.com/alejandrodnm/profitcalc/internal/domain"
)

// CacheRegistry es el namespace de stores con nombre del cache manager offline.
// Los stores se crean de forma lazy en Open.
type CacheRegistry interface {
	// Open devuelve el store con ese nombre, creándolo si hace falta.
	Open(ctx context.Context, name string) (CacheStore, error)

	// Has indica si existe un store con ese nombre.
	Has(ctx context.Context, name string) (bool, error)

	// Names lista todos los stores existentes.
	Names(ctx context.Context) ([]string, error)

	// Delete borra un store y todas sus entradas. Devuelve false si no existía.
	Delete(ctx context.Context, name string) (bool, error)
}

// CacheStore guarda respuestas por URL absoluta del request.
type CacheStore interface {
	Name() string

	// Match devuelve la respuesta guardada en key; ok es false si no hay.
	Match(ctx context.Context, key string) (resp domain.CachedResponse, ok bool, err error)

	// Put guarda resp en key. Con puts concurrentes gana la última escritura.
	Put(ctx context.Context, key string, resp domain.CachedResponse) error

	// Keys lista las claves guardadas.
	Keys(ctx context.Context) ([]string, error)
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/ports"
)

// Gateway implementa ports.Gateway: serializa a JSON y absorbe los errores
// del backend. Cada fallo queda logueado como warning y se reporta con false.
type Gateway struct {
	kv ports.KVStore
}

// NewGateway envuelve un KVStore.
func NewGateway(kv ports.KVStore) *Gateway {
	return &Gateway{kv: kv}
}

// Save serializa value y lo guarda en key.
func (g *Gateway) Save(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		g.warn("save", key, fmt.Errorf("encode: %w", err))
		return false
	}
	if err := g.kv.Put(ctx, key, data); err != nil {
		g.warn("save", key, err)
		return false
	}
	return true
}

// Load decodifica key en out. Una clave ausente o un "null" guardado devuelven false sin log.
func (g *Gateway) Load(ctx context.Context, key string, out any) bool {
	data, err := g.kv.Get(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		return false
	}
	if err != nil {
		g.warn("load", key, err)
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		g.warn("load", key, fmt.Errorf("decode: %w", err))
		return false
	}
	return true
}

func (g *Gateway) warn(op, key string, err error) {
	slog.Warn("persistence failed",
		"op", op,
		"key", key,
		"err", fmt.Errorf("%w: %w", domain.ErrStorageFailure, err),
	)
}

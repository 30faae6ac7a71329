package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefija todas las claves que escribe RedisStore.
const DefaultRedisNamespace = "profitcalc"

type cmdable interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore implementa ports.KVStore sobre Redis.
type RedisStore struct {
	store     cmdable
	closer    func() error
	namespace string
}

// NewRedisStore conecta a la URL dada (redis://...) y verifica con PING.
func NewRedisStore(ctx context.Context, url, namespace string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage.NewRedisStore: parse url: %w", err)
	}
	raw := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := raw.Ping(pingCtx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("storage.NewRedisStore: ping: %w", err)
	}

	return newRedisStore(raw, raw.Close, namespace), nil
}

func newRedisStore(store cmdable, closer func() error, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}
	if closer == nil {
		closer = func() error { return nil }
	}
	return &RedisStore{store: store, closer: closer, namespace: namespace}
}

// Key devuelve la clave Redis de una clave del gateway.
func (s *RedisStore) Key(key string) string {
	return strings.Join([]string{s.namespace, key}, ":")
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.store.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage.RedisStore.Get %q: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.store.Set(ctx, s.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("storage.RedisStore.Put %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.closer()
}

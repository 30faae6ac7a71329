package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/profitcalc/config"
	"github.com/alejandrodnm/profitcalc/internal/adapters/network"
	"github.com/alejandrodnm/profitcalc/internal/adapters/storage"
	"github.com/alejandrodnm/profitcalc/internal/calculator"
	"github.com/alejandrodnm/profitcalc/internal/offline"
	"github.com/alejandrodnm/profitcalc/internal/ports"
	"github.com/alejandrodnm/profitcalc/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// backend agrupa el KV del gateway y el registry de caches del backend elegido.
type backend struct {
	kv     ports.KVStore
	caches ports.CacheRegistry
}

func (b backend) Close() error {
	return b.kv.Close()
}

// openBackend abre el storage configurado. Redis no guarda caches: se usan en memoria.
func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return backend{kv: storage.NewMemoryKV(), caches: storage.NewMemoryCacheRegistry()}, nil
	case "redis":
		kv, err := storage.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Namespace)
		if err != nil {
			return backend{}, err
		}
		return backend{kv: kv, caches: storage.NewMemoryCacheRegistry()}, nil
	default:
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return backend{}, err
		}
		return backend{kv: db, caches: db.Caches()}, nil
	}
}

func runServer(ctx context.Context, cfg *config.Config, svc *calculator.Service, caches ports.CacheRegistry) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fetcher := network.NewClient(network.Options{
		Timeout:    cfg.Timeout(),
		RatePerSec: cfg.Network.RatePerSec,
		Burst:      cfg.Network.Burst,
		Retries:    cfg.Network.Retries,
	})

	cache, err := offline.New(offline.Config{
		Prefix:                cfg.Cache.Prefix,
		Origin:                cfg.Cache.Origin,
		Precache:              cfg.Cache.Precache,
		OfflinePage:           cfg.Cache.OfflinePage,
		AllowedHosts:          cfg.Cache.AllowedHosts,
		ExcludedSchemes:       cfg.Cache.ExcludedSchemes,
		ExcludedHostFragments: cfg.Cache.ExcludedHostFragments,
		AutoActivate:          cfg.Cache.AutoActivateEnabled(),
		Workers:               cfg.Cache.Workers,
	}, caches, fetcher, offline.NewMetrics(reg))
	if err != nil {
		return fmt.Errorf("runServer: %w", err)
	}

	slog.Info("profitcalc starting",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Backend,
		"cache_version", cfg.Cache.Version,
		"origin", cfg.Cache.Origin,
	)

	messages := make(chan offline.Message)
	go func() {
		if err := cache.Run(ctx, messages); err != nil {
			slog.Warn("control loop stopped", "err", err)
		}
	}()

	check := svc.CheckVersion(ctx)
	if check.Updated {
		slog.Info("app updated", "from", check.Previous, "to", check.Current)
	}
	go installCache(ctx, cache, cfg.Cache.Version, check.Updated, messages)

	return server.New(svc, cache, reg).Run(ctx, cfg.Server.Addr)
}

// installCache instala la generación de version. Si la app se actualizó pide
// SKIP_WAITING, recién cuando Install terminó y hay una generación esperando.
// Sin origen alcanzable la instalación falla y se sirve sin cache.
func installCache(ctx context.Context, cache *offline.Manager, version string, updated bool, messages chan<- offline.Message) {
	if err := cache.Install(ctx, version); err != nil {
		slog.Warn("cache install failed, serving uncached", "err", err)
		return
	}
	if !updated {
		return
	}
	select {
	case messages <- offline.Message{Type: offline.MsgSkipWaiting}:
	case <-ctx.Done():
	}
}

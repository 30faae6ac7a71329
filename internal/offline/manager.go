// Package offline implementa el cache manager que sirve los assets de la app:
// generaciones versionadas, cache-first y fallbacks sin red.
package offline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/ports"
)

// DefaultVersion es la versión cuya generación se instala al arrancar.
const DefaultVersion = "2.0.0"

// Config controla nombres, manifest de precache y política de cache.
type Config struct {
	Prefix string
	// Origin es la URL base absoluta de los assets (scheme + host).
	Origin      string
	Precache    []string
	OfflinePage string

	AllowedHosts          []string
	ExcludedSchemes       []string
	ExcludedHostFragments []string

	// AutoActivate promueve la generación apenas termina de instalarse.
	AutoActivate bool
	// Workers limita los fetches concurrentes del precache.
	Workers int
}

// DefaultConfig devuelve el manifest y la política por defecto de la app.
func DefaultConfig() Config {
	return Config{
		Prefix:                domain.DefaultCachePrefix,
		Origin:                "http://localhost:8080",
		Precache:              []string{"/", "/index.html", "/style.css", "/script.js", "/manifest.json", "/offline.html"},
		OfflinePage:           "/offline.html",
		AllowedHosts:          []string{"fonts.googleapis.com", "cdnjs.cloudflare.com"},
		ExcludedSchemes:       []string{"chrome-extension"},
		ExcludedHostFragments: []string{"analytics"},
		AutoActivate:          true,
		Workers:               defaultWorkers,
	}
}

type generation struct {
	domain.CacheGeneration
	store ports.CacheStore
}

// Manager es dueño de todos los stores cuyo nombre empieza con el prefijo configurado.
type Manager struct {
	cfg            Config
	policy         policy
	offlinePageKey string
	registry       ports.CacheRegistry
	fetcher        ports.Fetcher
	metrics        *Metrics

	lifecycle sync.Mutex // serializa Install y Activate

	mu      sync.RWMutex
	state   State
	version string // última versión pedida
	active  *generation
	waiting *generation
}

// New crea un Manager. metrics puede ser nil.
func New(cfg Config, registry ports.CacheRegistry, fetcher ports.Fetcher, metrics *Metrics) (*Manager, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = domain.DefaultCachePrefix
	}
	if cfg.OfflinePage == "" {
		cfg.OfflinePage = "/offline.html"
	}
	p, err := newPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("offline.New: %w", err)
	}
	offline, err := p.resolvePath(cfg.OfflinePage)
	if err != nil {
		return nil, fmt.Errorf("offline.New: offline page: %w", err)
	}
	return &Manager{
		cfg:            cfg,
		policy:         p,
		offlinePageKey: offline.String(),
		registry:       registry,
		fetcher:        fetcher,
		metrics:        metrics,
	}, nil
}

// Status devuelve una foto del estado del ciclo de vida.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Status{State: m.state}
	if m.active != nil {
		s.Active = m.active.CacheName
	}
	if m.waiting != nil {
		s.Waiting = m.waiting.CacheName
	}
	return s
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Install descarga todos los assets del precache y los guarda en la generación de version.
// Se descarga todo antes de escribir: un fallo o un status no-2xx devuelve
// ErrInstallFailure sin guardar nada, y la generación activa sigue sirviendo.
func (m *Manager) Install(ctx context.Context, version string) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	gen := domain.NewCacheGeneration(m.cfg.Prefix, version, m.cfg.Precache)
	m.mu.Lock()
	m.state = StateInstalling
	m.version = version
	m.mu.Unlock()
	slog.Info("installing cache generation", "cache", gen.CacheName, "assets", len(gen.PrecacheAssets))

	if err := m.install(ctx, gen); err != nil {
		m.mu.Lock()
		switch {
		case m.active != nil:
			m.state = StateActive
		case m.waiting != nil:
			m.state = StateInstalled
		default:
			m.state = StateRedundant
		}
		m.mu.Unlock()
		m.metrics.install("failure")
		slog.Error("cache install failed", "cache", gen.CacheName, "err", err)
		return fmt.Errorf("offline.Install %s: %w", version, err)
	}
	m.metrics.install("success")
	slog.Info("cache generation installed", "cache", gen.CacheName)

	if m.cfg.AutoActivate {
		return m.activate(ctx)
	}
	return nil
}

func (m *Manager) install(ctx context.Context, gen domain.CacheGeneration) error {
	responses, err := m.fetchAll(ctx, gen.PrecacheAssets)
	if err != nil {
		return err
	}

	store, err := m.registry.Open(ctx, gen.CacheName)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInstallFailure, err)
	}
	for _, f := range responses {
		if err := store.Put(ctx, f.key, f.resp); err != nil {
			m.discard(ctx, gen.CacheName)
			return fmt.Errorf("%w: store %s: %w", domain.ErrInstallFailure, f.key, err)
		}
	}

	m.mu.Lock()
	m.waiting = &generation{CacheGeneration: gen, store: store}
	m.state = StateInstalled
	m.mu.Unlock()
	return nil
}

// discard borra un store a medio escribir, salvo que sea el que se está sirviendo.
func (m *Manager) discard(ctx context.Context, name string) {
	m.mu.RLock()
	serving := m.active != nil && m.active.CacheName == name
	m.mu.RUnlock()
	if serving {
		return
	}
	if _, err := m.registry.Delete(context.WithoutCancel(ctx), name); err != nil {
		slog.Warn("discard partial cache failed", "cache", name, "err", err)
	}
}

// Activate promueve la generación en espera y borra los stores viejos.
// Sin generación en espera no hace nada.
func (m *Manager) Activate(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.activate(ctx)
}

func (m *Manager) activate(ctx context.Context) error {
	m.mu.Lock()
	gen := m.waiting
	if gen == nil {
		m.mu.Unlock()
		return nil
	}
	m.state = StateActivating
	m.active = gen
	m.waiting = nil
	m.mu.Unlock()

	names, err := m.registry.Names(ctx)
	if err != nil {
		m.setState(StateActive)
		return fmt.Errorf("offline.Activate: list caches: %w", err)
	}
	for _, name := range names {
		if !domain.IsStaleCache(name, m.cfg.Prefix, gen.CacheName) {
			continue
		}
		slog.Info("deleting stale cache", "cache", name)
		if _, err := m.registry.Delete(ctx, name); err != nil {
			slog.Warn("delete stale cache failed", "cache", name, "err", err)
		}
	}

	m.setState(StateActive)
	slog.Info("cache generation active", "cache", gen.CacheName)
	return nil
}

// Serve responde un request interceptado. Nunca devuelve error: los fallos
// de red se convierten en fallbacks offline.
func (m *Manager) Serve(ctx context.Context, req *http.Request) domain.CachedResponse {
	target := m.policy.resolve(req.URL)

	if reason := m.policy.bypass(req, target); reason != "" {
		m.metrics.pass(reason)
		return m.passThrough(ctx, req, target)
	}

	m.mu.RLock()
	gen := m.active
	m.mu.RUnlock()
	if gen == nil {
		m.metrics.pass("inactive")
		return m.passThrough(ctx, req, target)
	}

	key := target.String()
	cached, ok, err := gen.store.Match(ctx, key)
	if err != nil {
		slog.Warn("cache lookup failed", "cache", gen.CacheName, "key", key, "err", err)
	}
	if ok {
		m.metrics.hit()
		slog.Debug("serving from cache", "key", key)
		return cached
	}
	m.metrics.miss()

	resp, err := m.fetcher.Fetch(ctx, outbound(ctx, req, target))
	if err != nil {
		slog.Warn("fetch failed, serving offline fallback", "key", key, "err", err)
		return m.offlineResponse(ctx, req, key, gen.store)
	}

	if resp.Status == http.StatusOK && m.policy.cacheable(target) {
		m.store(context.WithoutCancel(ctx), gen, key, resp)
	}
	return resp
}

// store guarda resp en gen solo si gen sigue activa. El read lock cubre el Put:
// activate no puede cambiar de generación ni borrar la vieja en el medio.
func (m *Manager) store(ctx context.Context, gen *generation, key string, resp domain.CachedResponse) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active != gen {
		slog.Debug("generation replaced, response not cached", "cache", gen.CacheName, "key", key)
		return
	}
	if err := gen.store.Put(ctx, key, resp.Clone()); err != nil {
		slog.Warn("cache put failed", "cache", gen.CacheName, "key", key, "err", err)
		return
	}
	m.metrics.store()
	slog.Debug("cached new resource", "key", key)
}

func (m *Manager) passThrough(ctx context.Context, req *http.Request, target *url.URL) domain.CachedResponse {
	resp, err := m.fetcher.Fetch(ctx, outbound(ctx, req, target))
	if err != nil {
		slog.Warn("pass-through fetch failed", "url", target.String(), "err", err)
		return m.offlineResponse(ctx, req, target.String(), nil)
	}
	return resp
}

// outbound copia req hacia target, manteniendo método, headers y body.
func outbound(ctx context.Context, req *http.Request, target *url.URL) *http.Request {
	out := req.Clone(ctx)
	u := *target
	out.URL = &u
	out.Host = u.Host
	out.RequestURI = ""
	return out
}

package offline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alejandrodnm/profitcalc/internal/adapters/storage"
	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "http://shop.test"

// --- mocks ---

type mockFetcher struct {
	mu      sync.Mutex
	offline bool
	status  map[string]int // por URL; default 200
	calls   []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{status: map[string]int{}}
}

func (f *mockFetcher) Fetch(_ context.Context, req *http.Request) (domain.CachedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := req.URL.String()
	f.calls = append(f.calls, req.Method+" "+u)
	if f.offline {
		return domain.CachedResponse{}, domain.ErrNetworkFailure
	}
	status := http.StatusOK
	if s, ok := f.status[u]; ok {
		status = s
	}
	h := make(http.Header)
	h.Set("Content-Type", "text/plain")
	return domain.CachedResponse{Status: status, Header: h, Body: []byte("body of " + u)}, nil
}

func (f *mockFetcher) setOffline(v bool) {
	f.mu.Lock()
	f.offline = v
	f.mu.Unlock()
}

func (f *mockFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// hookFetcher corre before antes de delegar en el mock.
type hookFetcher struct {
	*mockFetcher
	before func(req *http.Request)
}

func (h *hookFetcher) Fetch(ctx context.Context, req *http.Request) (domain.CachedResponse, error) {
	if h.before != nil {
		h.before(req)
	}
	return h.mockFetcher.Fetch(ctx, req)
}

// --- helpers ---

func newManager(t *testing.T, mutate func(*offline.Config)) (*offline.Manager, *storage.MemoryCacheRegistry, *mockFetcher) {
	t.Helper()
	cfg := offline.DefaultConfig()
	cfg.Origin = origin
	if mutate != nil {
		mutate(&cfg)
	}
	reg := storage.NewMemoryCacheRegistry()
	f := newMockFetcher()
	m, err := offline.New(cfg, reg, f, nil)
	require.NoError(t, err)
	return m, reg, f
}

func get(path, accept string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req
}

func cacheInfo(t *testing.T, m *offline.Manager) domain.CacheInfo {
	t.Helper()
	reply, err := m.HandleMessage(context.Background(), offline.Message{Type: offline.MsgGetCacheInfo})
	require.NoError(t, err)
	info, ok := reply.(domain.CacheInfo)
	require.True(t, ok)
	return info
}

// --- tests ---

func TestNew_RejectsRelativeOrigin(t *testing.T) {
	cfg := offline.DefaultConfig()
	cfg.Origin = "/relative"
	_, err := offline.New(cfg, storage.NewMemoryCacheRegistry(), newMockFetcher(), nil)
	assert.Error(t, err)
}

func TestInstall_PrecachesManifest(t *testing.T) {
	m, _, f := newManager(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "1"))

	info := cacheInfo(t, m)
	assert.Equal(t, "1", info.Version)
	assert.Contains(t, info.CacheName, "v1")
	assert.Equal(t, "profitcalc-cache-v1", info.CacheName)
	assert.GreaterOrEqual(t, info.CacheSize, len(offline.DefaultConfig().Precache))
	assert.Equal(t, len(offline.DefaultConfig().Precache), f.callCount())

	st := m.Status()
	assert.Equal(t, offline.StateActive, st.State, "auto-activates after install")
	assert.Equal(t, "profitcalc-cache-v1", st.Active)
}

func TestInstall_WaitsWithoutAutoActivate(t *testing.T) {
	m, _, f := newManager(t, func(c *offline.Config) { c.AutoActivate = false })
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "1"))
	st := m.Status()
	assert.Equal(t, offline.StateInstalled, st.State)
	assert.Equal(t, "profitcalc-cache-v1", st.Waiting)
	assert.Empty(t, st.Active)

	// Sin generación activa, todo pasa directo a la red
	before := f.callCount()
	m.Serve(ctx, get("/style.css", ""))
	m.Serve(ctx, get("/style.css", ""))
	assert.Equal(t, before+2, f.callCount())

	reply, err := m.HandleMessage(ctx, offline.Message{Type: offline.MsgSkipWaiting})
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Equal(t, offline.StateActive, m.Status().State)

	before = f.callCount()
	m.Serve(ctx, get("/style.css", ""))
	assert.Equal(t, before, f.callCount(), "precached asset served from cache")
}

func TestInstall_FailureStoresNothing(t *testing.T) {
	m, reg, f := newManager(t, nil)
	ctx := context.Background()

	f.status[origin+"/manifest.json"] = http.StatusNotFound
	err := m.Install(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInstallFailure)
	assert.Equal(t, offline.StateRedundant, m.Status().State)

	has, err := reg.Has(ctx, "profitcalc-cache-v1")
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, 0, cacheInfo(t, m).CacheSize)
}

func TestInstall_FailureKeepsPreviousGeneration(t *testing.T) {
	m, reg, f := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))

	f.setOffline(true)
	err := m.Install(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrInstallFailure)

	assert.Equal(t, "profitcalc-cache-v1", m.Status().Active)
	assert.Equal(t, offline.StateActive, m.Status().State, "sigue activo aunque el reinstall falló")
	names, err := reg.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"profitcalc-cache-v1"}, names)

	resp := m.Serve(ctx, get("/index.html", "text/html"))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "body of "+origin+"/index.html", string(resp.Body))
}

func TestActivate_EvictsStaleGenerations(t *testing.T) {
	m, reg, _ := newManager(t, nil)
	ctx := context.Background()

	// Store ajeno al manager: no se toca
	_, err := reg.Open(ctx, "other-cache")
	require.NoError(t, err)

	require.NoError(t, m.Install(ctx, "1"))
	require.NoError(t, m.Install(ctx, "2"))

	names, err := reg.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other-cache", "profitcalc-cache-v2"}, names)

	info := cacheInfo(t, m)
	assert.Equal(t, "2", info.Version)
	assert.Equal(t, "profitcalc-cache-v2", info.CacheName)
}

func TestServe_CacheFirst(t *testing.T) {
	m, _, f := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))

	before := f.callCount()
	resp := m.Serve(ctx, get("/script.js", ""))
	assert.Equal(t, before, f.callCount(), "hit makes no network request")
	assert.Equal(t, "body of "+origin+"/script.js", string(resp.Body))

	// Miss: va a la red y guarda la copia
	resp = m.Serve(ctx, get("/img/logo.png", ""))
	assert.Equal(t, before+1, f.callCount())
	assert.Equal(t, http.StatusOK, resp.Status)

	m.Serve(ctx, get("/img/logo.png", ""))
	assert.Equal(t, before+1, f.callCount(), "second request is a hit")
	assert.Equal(t, len(offline.DefaultConfig().Precache)+1, cacheInfo(t, m).CacheSize)
}

func TestServe_OnlyCachesOKFromAllowedOrigins(t *testing.T) {
	m, _, f := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))
	base := cacheInfo(t, m).CacheSize

	f.status[origin+"/missing"] = http.StatusNotFound
	resp := m.Serve(ctx, get("/missing", ""))
	assert.Equal(t, http.StatusNotFound, resp.Status)

	m.Serve(ctx, get("https://fonts.googleapis.com/css2?family=Inter", ""))
	m.Serve(ctx, get("https://cdn.example.com/lib.js", ""))

	assert.Equal(t, base+1, cacheInfo(t, m).CacheSize, "only the allow-listed host was stored")
}

func TestServe_PassThrough(t *testing.T) {
	m, _, f := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))
	base := cacheInfo(t, m).CacheSize

	post := httptest.NewRequest(http.MethodPost, "/index.html", strings.NewReader("{}"))
	before := f.callCount()
	resp := m.Serve(ctx, post)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, before+1, f.callCount(), "non-GET never answered from cache")

	m.Serve(ctx, get("https://www.google-analytics.com/collect", ""))
	m.Serve(ctx, get("https://www.google-analytics.com/collect", ""))
	assert.Equal(t, before+3, f.callCount())

	assert.Equal(t, base, cacheInfo(t, m).CacheSize)
}

func TestServe_OfflineFallbacks(t *testing.T) {
	m, _, f := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))
	f.setOffline(true)

	html := m.Serve(ctx, get("/pricing", "text/html,application/xhtml+xml"))
	assert.Equal(t, http.StatusOK, html.Status)
	assert.Equal(t, "body of "+origin+"/offline.html", string(html.Body))

	css := m.Serve(ctx, get("/theme.css", "text/css"))
	assert.Equal(t, "text/css", css.Header.Get("Content-Type"))
	assert.Equal(t, "/* Offline - CSS not available */", string(css.Body))

	js := m.Serve(ctx, get("/app.js", "*/*"))
	assert.Equal(t, "application/javascript", js.Header.Get("Content-Type"))
	assert.Equal(t, "// Offline - JavaScript not available", string(js.Body))

	api := m.Serve(ctx, get("/data.json", "application/json"))
	assert.Equal(t, "application/json", api.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", api.Header.Get("Cache-Control"))
	assert.JSONEq(t, `{"error":"Offline","message":"Network unavailable"}`, string(api.Body))
}

func TestServe_OfflineWithoutOfflinePage(t *testing.T) {
	m, _, f := newManager(t, func(c *offline.Config) { c.Precache = []string{"/"} })
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))
	f.setOffline(true)

	resp := m.Serve(ctx, get("/pricing", "text/html"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestMessage_ClearCache(t *testing.T) {
	m, reg, _ := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))

	reply, err := m.HandleMessage(ctx, offline.Message{Type: offline.MsgClearCache})
	require.NoError(t, err)
	assert.Equal(t, domain.ClearCacheResult{Success: true}, reply)

	has, err := reg.Has(ctx, "profitcalc-cache-v1")
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, 0, cacheInfo(t, m).CacheSize)

	reply, err = m.HandleMessage(ctx, offline.Message{Type: offline.MsgClearCache})
	require.NoError(t, err)
	assert.Equal(t, domain.ClearCacheResult{Success: false}, reply)
}

func TestMessage_UnknownIgnored(t *testing.T) {
	m, _, _ := newManager(t, nil)
	reply, err := m.HandleMessage(context.Background(), offline.Message{Type: "PING"})
	assert.NoError(t, err)
	assert.Nil(t, reply)
}

func TestRun_RepliesOnChannel(t *testing.T) {
	m, _, _ := newManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Install(ctx, "1"))

	ch := make(chan offline.Message)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, ch) }()

	reply := make(chan any, 1)
	ch <- offline.Message{Type: offline.MsgGetCacheInfo, Reply: reply}
	info, ok := (<-reply).(domain.CacheInfo)
	require.True(t, ok)
	assert.Equal(t, "profitcalc-cache-v1", info.CacheName)

	close(ch)
	assert.NoError(t, <-done)
}

func TestServe_ConcurrentRequests(t *testing.T) {
	m, _, _ := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.Install(ctx, "1"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := m.Serve(ctx, get("/shared.png", ""))
			assert.Equal(t, http.StatusOK, resp.Status)
		}()
	}
	wg.Wait()
	assert.Equal(t, len(offline.DefaultConfig().Precache)+1, cacheInfo(t, m).CacheSize)
}

func TestServe_CanceledRequestStillStores(t *testing.T) {
	m, _, _ := newManager(t, nil)
	require.NoError(t, m.Install(context.Background(), "1"))

	// El fetcher ignora ctx; el put se hace con context.WithoutCancel
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := m.Serve(ctx, get("/late.css", ""))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, len(offline.DefaultConfig().Precache)+1, cacheInfo(t, m).CacheSize)
}

func TestInstall_ConcurrentPrecacheFetchesEveryAsset(t *testing.T) {
	ctx := context.Background()
	m, reg, f := newManager(t, func(c *offline.Config) { c.Workers = 3 })

	require.NoError(t, m.Install(ctx, "1"))

	store, err := reg.Open(ctx, "profitcalc-cache-v1")
	require.NoError(t, err)
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 6)
	assert.Equal(t, 6, f.callCount())
	assert.Contains(t, keys, origin+"/offline.html")
}

func TestInstall_CanceledMidwayStoresNothing(t *testing.T) {
	base := context.Background()
	reg := storage.NewMemoryCacheRegistry()
	f := &hookFetcher{mockFetcher: newMockFetcher()}
	cfg := offline.DefaultConfig()
	cfg.Origin = origin
	cfg.Workers = 1
	m, err := offline.New(cfg, reg, f, nil)
	require.NoError(t, err)
	require.NoError(t, m.Install(base, "1"))

	ctx, cancel := context.WithCancel(base)
	defer cancel()
	var once sync.Once
	f.before = func(*http.Request) { once.Do(cancel) }

	err = m.Install(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrInstallFailure)
	assert.ErrorIs(t, err, context.Canceled)

	st := m.Status()
	assert.Equal(t, offline.StateActive, st.State)
	assert.Equal(t, "profitcalc-cache-v1", st.Active)
	assert.Empty(t, st.Waiting)

	names, err := reg.Names(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"profitcalc-cache-v1"}, names)

	store, err := reg.Open(base, "profitcalc-cache-v1")
	require.NoError(t, err)
	keys, err := store.Keys(base)
	require.NoError(t, err)
	assert.Len(t, keys, 6)
	assert.NotContains(t, keys, "")
}

func TestServe_InFlightRequestDoesNotReviveStaleGeneration(t *testing.T) {
	ctx := context.Background()
	reg := storage.NewMemoryCacheRegistry()
	entered := make(chan struct{})
	release := make(chan struct{})
	var gate sync.Once
	f := &hookFetcher{mockFetcher: newMockFetcher(), before: func(req *http.Request) {
		if req.URL.Path == "/slow.png" {
			gate.Do(func() {
				close(entered)
				<-release
			})
		}
	}}
	cfg := offline.DefaultConfig()
	cfg.Origin = origin
	m, err := offline.New(cfg, reg, f, nil)
	require.NoError(t, err)
	require.NoError(t, m.Install(ctx, "1"))

	done := make(chan domain.CachedResponse)
	go func() { done <- m.Serve(ctx, get("/slow.png", "")) }()
	<-entered

	require.NoError(t, m.Install(ctx, "2"))
	close(release)
	resp := <-done
	assert.Equal(t, http.StatusOK, resp.Status, "la respuesta llega igual al cliente")

	names, err := reg.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"profitcalc-cache-v2"}, names)

	// La generación nueva sí cachea el mismo recurso
	m.Serve(ctx, get("/slow.png", ""))
	info := cacheInfo(t, m)
	assert.Equal(t, "profitcalc-cache-v2", info.CacheName)
	assert.Equal(t, 7, info.CacheSize)
}

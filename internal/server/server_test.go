package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alejandrodnm/profitcalc/internal/adapters/storage"
	"github.com/alejandrodnm/profitcalc/internal/calculator"
	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/offline"
	"github.com/alejandrodnm/profitcalc/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type staticFetcher struct{}

func (staticFetcher) Fetch(_ context.Context, req *http.Request) (domain.CachedResponse, error) {
	h := make(http.Header)
	h.Set("Content-Type", "text/plain")
	return domain.CachedResponse{Status: http.StatusOK, Header: h, Body: []byte("asset " + req.URL.Path)}, nil
}

// --- helpers ---

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gw := storage.NewGateway(storage.NewMemoryKV())
	svc := calculator.New(calculator.DefaultConfig(), gw, nil)

	reg := prometheus.NewRegistry()
	cfg := offline.DefaultConfig()
	cfg.Origin = "http://shop.test"
	cache, err := offline.New(cfg, storage.NewMemoryCacheRegistry(), staticFetcher{}, offline.NewMetrics(reg))
	require.NoError(t, err)
	require.NoError(t, cache.Install(context.Background(), "1"))

	return server.New(svc, cache, reg).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(out))
}

const exampleBody = `{"costPrice":"50000","platformFeePercent":5.5,"shippingFee":20000,"adsCost":"5000","sellingPrice":150000}`

// --- tests ---

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCalculate(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/calculate", exampleBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var out calculator.Outcome
	decode(t, rec, &out)
	assert.InDelta(t, 66750, out.Result.ProfitPerOrder, 1e-9)
	assert.InDelta(t, 44.5, out.Result.ProfitPercentage, 1e-9)
	assert.Equal(t, "44.5%", out.Display.ProfitPercentage)
	assert.Contains(t, rec.Body.String(), `"tier":"super_high_profit"`)
}

func TestCalculate_ValidationIs422(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/calculate", `{"costPrice":50000,"sellingPrice":null}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrMissingPrice.Error())

	rec = do(t, h, http.MethodPost, "/api/calculate", `{"costPrice":-5,"sellingPrice":100}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/calculate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestPrice(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/suggest-price",
		`{"costPrice":50000,"platformFeePercent":5.5,"shippingFee":20000,"adsCost":5000,"desiredProfit":"20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var sug calculator.Suggestion
	decode(t, rec, &sug)
	assert.Equal(t, 101000.0, sug.Price)

	rec = do(t, h, http.MethodPost, "/api/suggest-price",
		`{"costPrice":50,"platformFeePercent":60,"desiredProfit":50}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHistory(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/history", strings.TrimSuffix(exampleBody, "}")+`,"note":"first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/history", "")
	var history []domain.SavedCalculation
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Note)
	assert.Equal(t, 150000.0, history[0].SellingPrice)
}

func TestSettings(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/settings", "")
	assert.JSONEq(t, `{"platformFee":5.5,"platform":"shopee"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/settings", `{"costPrice":1000,"platformFee":8,"platform":"tiktok"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/settings", "")
	assert.JSONEq(t, `{"costPrice":1000,"platformFee":8,"platform":"tiktok"}`, rec.Body.String())
}

func TestFeedbackAndSubscribe(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/feedback", `{"feedback":"nice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"anonymous"`)

	rec = do(t, h, http.MethodPost, "/api/feedback", `{"feedback":"","email":"x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"feedback":"is required"`)

	rec = do(t, h, http.MethodPost, "/api/subscribe", `{"email":"seller@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/subscribe", `{"email":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPlatforms(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/platforms", "")
	assert.JSONEq(t, `[
		{"name":"lazada","fee":7,"default":false},
		{"name":"shopee","fee":5.5,"default":true},
		{"name":"tiktok","fee":8,"default":false}
	]`, rec.Body.String())
}

func TestCacheProxyAndControlChannel(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/style.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asset /style.css", rec.Body.String())

	rec = do(t, h, http.MethodPost, "/sw/message", `{"type":"GET_CACHE_INFO"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var info domain.CacheInfo
	decode(t, rec, &info)
	assert.Equal(t, "profitcalc-cache-v1", info.CacheName)
	assert.Equal(t, 6, info.CacheSize)

	rec = do(t, h, http.MethodGet, "/sw/status", "")
	assert.Contains(t, rec.Body.String(), `"state":"active"`)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profitcalc_cache_hits_total 1")
}

func TestWrongMethodOnAPIRouteIs405(t *testing.T) {
	h := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/calculate"},
		{http.MethodDelete, "/api/settings"},
		{http.MethodGet, "/sw/message"},
	} {
		rec := do(t, h, tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.method+" "+tc.path)
		assert.NotContains(t, rec.Body.String(), "asset ", "no se manda al origen")
	}

	rec := do(t, h, http.MethodPost, "/sw/message", `{"type":"GET_CACHE_INFO"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var info domain.CacheInfo
	decode(t, rec, &info)
	assert.Equal(t, len(offline.DefaultConfig().Precache), info.CacheSize, "nada nuevo en cache")
}

package offline

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/ports"
)

const (
	offlineCSS  = "/* Offline - CSS not available */"
	offlineJS   = "// Offline - JavaScript not available"
	offlineJSON = `{"error":"Offline","message":"Network unavailable"}`
)

// offlineResponse elige el fallback para un request cuyo fetch falló.
// Nunca falla: sin página offline en cache se devuelve el payload JSON.
func (m *Manager) offlineResponse(ctx context.Context, req *http.Request, target string, store ports.CacheStore) domain.CachedResponse {
	if strings.Contains(req.Header.Get("Accept"), "text/html") && store != nil {
		page, ok, err := store.Match(ctx, m.offlinePageKey)
		if err != nil {
			slog.Warn("offline page lookup failed", "err", err)
		}
		if ok {
			m.metrics.fallback("html")
			return page
		}
	}

	path := target
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		m.metrics.fallback("css")
		return textResponse(http.StatusOK, "text/css", offlineCSS)
	case strings.HasSuffix(path, ".js"):
		m.metrics.fallback("js")
		return textResponse(http.StatusOK, "application/javascript", offlineJS)
	}

	m.metrics.fallback("json")
	resp := textResponse(http.StatusServiceUnavailable, "application/json", offlineJSON)
	resp.Header.Set("Cache-Control", "no-cache")
	return resp
}

func textResponse(status int, contentType, body string) domain.CachedResponse {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	return domain.CachedResponse{
		Status:   status,
		Header:   h,
		Body:     []byte(body),
		StoredAt: time.Now().UTC(),
	}
}

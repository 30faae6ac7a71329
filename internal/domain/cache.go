package domain

import (
	"net/http"
	"strings"
	"time"
)

// DefaultCachePrefix es el prefijo de todos los stores que gestiona el cache manager.
const DefaultCachePrefix = "profitcalc-cache-"

// CacheName construye el nombre determinista del store de una versión.
func CacheName(prefix, version string) string {
	return prefix + "v" + version
}

// IsStaleCache devuelve true si name pertenece al manager (prefijo) pero no es el actual.
func IsStaleCache(name, prefix, current string) bool {
	return strings.HasPrefix(name, prefix) && name != current
}

// CacheGeneration es un store versionado. Solo una generación es la actual.
type CacheGeneration struct {
	Version        string
	CacheName      string
	PrecacheAssets []string
}

// NewCacheGeneration arma la generación de version con el manifest dado.
func NewCacheGeneration(prefix, version string, assets []string) CacheGeneration {
	return CacheGeneration{
		Version:        version,
		CacheName:      CacheName(prefix, version),
		PrecacheAssets: append([]string(nil), assets...),
	}
}

// CachedResponse es lo que guarda un store por cada request.
type CachedResponse struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Clone devuelve una copia profunda, segura para guardar y servir en paralelo.
func (r CachedResponse) Clone() CachedResponse {
	out := r
	out.Header = r.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	out.Body = append([]byte(nil), r.Body...)
	return out
}

// OK devuelve true para respuestas 2xx.
func (r CachedResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// CacheInfo es la respuesta a GET_CACHE_INFO.
type CacheInfo struct {
	Version   string `json:"version"`
	CacheSize int    `json:"cacheSize"`
	CacheName string `json:"cacheName"`
}

// ClearCacheResult es la respuesta a CLEAR_CACHE.
type ClearCacheResult struct {
	Success bool `json:"success"`
}

package domain

import (
	"sort"
	"strings"
)

// DefaultPlatform es el preset que se aplica al resetear el formulario.
const DefaultPlatform = "shopee"

// defaultPlatformFees son los fees porcentuales de cada marketplace.
var defaultPlatformFees = map[string]float64{
	"shopee": 5.5,
	"tiktok": 8.0,
	"lazada": 7.0,
}

// PlatformFees devuelve una copia de los presets por defecto.
func PlatformFees() map[string]float64 {
	out := make(map[string]float64, len(defaultPlatformFees))
	for k, v := range defaultPlatformFees {
		out[k] = v
	}
	return out
}

// FeeForPlatform busca el fee de un marketplace en presets (case-insensitive).
// Si presets es nil usa los valores por defecto.
func FeeForPlatform(presets map[string]float64, platform string) (float64, bool) {
	if presets == nil {
		presets = defaultPlatformFees
	}
	fee, ok := presets[strings.ToLower(strings.TrimSpace(platform))]
	return fee, ok
}

// PlatformNames devuelve los nombres de presets ordenados alfabéticamente.
func PlatformNames(presets map[string]float64) []string {
	if presets == nil {
		presets = defaultPlatformFees
	}
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

package offline

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// policy decide qué requests maneja el manager y qué respuestas guarda.
type policy struct {
	origin    *url.URL
	allowed   map[string]bool
	schemes   map[string]bool
	fragments []string
}

func newPolicy(cfg Config) (policy, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return policy{}, fmt.Errorf("parse origin %q: %w", cfg.Origin, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return policy{}, fmt.Errorf("origin %q must be absolute", cfg.Origin)
	}

	p := policy{
		origin:  origin,
		allowed: make(map[string]bool, len(cfg.AllowedHosts)),
		schemes: make(map[string]bool, len(cfg.ExcludedSchemes)),
	}
	for _, h := range cfg.AllowedHosts {
		p.allowed[strings.ToLower(h)] = true
	}
	for _, s := range cfg.ExcludedSchemes {
		p.schemes[strings.ToLower(strings.TrimSuffix(s, ":"))] = true
	}
	for _, f := range cfg.ExcludedHostFragments {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			p.fragments = append(p.fragments, f)
		}
	}
	return p, nil
}

// resolve convierte la URL del request en la URL absoluta usada como clave y destino.
func (p policy) resolve(u *url.URL) *url.URL {
	return p.origin.ResolveReference(u)
}

// resolvePath resuelve un path del manifest relativo a la raíz.
func (p policy) resolvePath(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	return p.origin.ResolveReference(ref), nil
}

// bypass devuelve el motivo de pass-through, o "" si el manager maneja req.
func (p policy) bypass(req *http.Request, target *url.URL) string {
	if req.Method != http.MethodGet {
		return "method"
	}
	if p.schemes[strings.ToLower(target.Scheme)] {
		return "scheme"
	}
	host := strings.ToLower(target.Hostname())
	for _, f := range p.fragments {
		if strings.Contains(host, f) {
			return "host"
		}
	}
	return ""
}

// cacheable indica si una respuesta 200 de target se puede guardar.
func (p policy) cacheable(target *url.URL) bool {
	if strings.EqualFold(target.Scheme, p.origin.Scheme) && strings.EqualFold(target.Host, p.origin.Host) {
		return true
	}
	return p.allowed[strings.ToLower(target.Hostname())]
}

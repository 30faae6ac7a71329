package offline

import "github.com/prometheus/client_golang/prometheus"

// Metrics cuenta cómo responde el cache manager. Un *Metrics nil no hace nada.
type Metrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	stored      prometheus.Counter
	passThrough *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	installs    *prometheus.CounterVec
}

// NewMetrics registra las métricas del cache manager en reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profitcalc_cache_hits_total",
		Help: "Requests answered from the current cache store.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profitcalc_cache_misses_total",
		Help: "Requests not found in the current cache store.",
	})
	stored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profitcalc_cache_stored_total",
		Help: "Network responses copied into the current cache store.",
	})
	passThrough := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profitcalc_cache_passthrough_total",
		Help: "Requests forwarded to the network without cache handling.",
	}, []string{"reason"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profitcalc_cache_offline_fallbacks_total",
		Help: "Offline fallback responses served after a network failure.",
	}, []string{"kind"})
	installs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profitcalc_cache_installs_total",
		Help: "Cache generation installs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(hits, misses, stored, passThrough, fallbacks, installs)
	return &Metrics{
		hits:        hits,
		misses:      misses,
		stored:      stored,
		passThrough: passThrough,
		fallbacks:   fallbacks,
		installs:    installs,
	}
}

func (m *Metrics) hit() {
	if m == nil || m.hits == nil {
		return
	}
	m.hits.Inc()
}

func (m *Metrics) miss() {
	if m == nil || m.misses == nil {
		return
	}
	m.misses.Inc()
}

func (m *Metrics) store() {
	if m == nil || m.stored == nil {
		return
	}
	m.stored.Inc()
}

func (m *Metrics) pass(reason string) {
	if m == nil || m.passThrough == nil {
		return
	}
	m.passThrough.WithLabelValues(reason).Inc()
}

func (m *Metrics) fallback(kind string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) install(outcome string) {
	if m == nil || m.installs == nil {
		return
	}
	m.installs.WithLabelValues(outcome).Inc()
}

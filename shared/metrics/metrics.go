package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the auth service collectors.
type Metrics struct {
	AuthRequests  *prometheus.CounterVec
	KeySetFetches *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinidoc",
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Authentication operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		KeySetFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinidoc",
			Subsystem: "oauth",
			Name:      "jwks_fetches_total",
			Help:      "Signing key set fetches by provider and result.",
		}, []string{"provider", "result"}),
	}

	reg.MustRegister(m.AuthRequests, m.KeySetFetches)

	return m
}

// ObserveAuth records one operation. Outcome is "ok" for a nil error,
// otherwise the caller supplied error kind.
func (m *Metrics) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthRequests.WithLabelValues(operation, outcome).Inc()
}

// ObserveKeySetFetch records a JWKS fetch for provider.
func (m *Metrics) ObserveKeySetFetch(provider string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.KeySetFetches.WithLabelValues(provider, result).Inc()
}

package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session activity. A nil *Metrics records nothing.
type Metrics struct {
	refreshes *prometheus.CounterVec
	waiters   prometheus.Counter
	requests  *prometheus.CounterVec
	auths     *prometheus.CounterVec
	teardowns *prometheus.CounterVec
}

// NewMetrics creates the session collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sesh",
			Name:      "refresh_total",
			Help:      "Refresh network calls by outcome (ok, expired, failed).",
		}, []string{"outcome"}),
		waiters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sesh",
			Name:      "refresh_shared_total",
			Help:      "Refresh callers that shared an in-flight refresh.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sesh",
			Name:      "requests_total",
			Help:      "Authenticated requests by outcome (ok, retried, aborted, error).",
		}, []string{"outcome"}),
		auths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sesh",
			Name:      "auth_total",
			Help:      "Login and registration attempts by operation and outcome.",
		}, []string{"op", "outcome"}),
		teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sesh",
			Name:      "teardown_total",
			Help:      "Session teardowns by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.refreshes, m.waiters, m.requests, m.auths, m.teardowns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) refresh(outcome string) {
	if m != nil {
		m.refreshes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) waiter() {
	if m != nil {
		m.waiters.Inc()
	}
}

func (m *Metrics) request(outcome string) {
	if m != nil {
		m.requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) auth(op, outcome string) {
	if m != nil {
		m.auths.WithLabelValues(op, outcome).Inc()
	}
}

func (m *Metrics) teardown(reason string) {
	if m != nil {
		m.teardowns.WithLabelValues(reason).Inc()
	}
}

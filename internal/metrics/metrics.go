package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "saas_admin"

// Metrics holds the collectors shared by the API client, refresh coordinator and
// route guard. Each instance owns its registry so tests can build their own.
type Metrics struct {
	registry *prometheus.Registry

	APIRequests      *prometheus.CounterVec
	RefreshExchanges *prometheus.CounterVec
	RefreshWaiters   prometheus.Counter
	GuardDecisions   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API requests by method and response status.",
		}, []string{"method", "status"}),
		RefreshExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_exchanges_total",
			Help:      "Refresh token exchanges by outcome.",
		}, []string{"outcome"}),
		RefreshWaiters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_waiters_total",
			Help:      "Callers queued behind an in-flight refresh exchange.",
		}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by action.",
		}, []string{"action"}),
	}
	m.registry.MustRegister(m.APIRequests, m.RefreshExchanges, m.RefreshWaiters, m.GuardDecisions)
	return m
}

// ObserveRequest records a backend response. status 0 means no response arrived.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	if status == 0 {
		label = "network_error"
	}
	m.APIRequests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshExchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWaiter() {
	if m == nil {
		return
	}
	m.RefreshWaiters.Inc()
}

func (m *Metrics) ObserveGuard(action string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(action).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package monitoring

import (
	"strconv"
	"time"

	"nodegate/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	authFailuresTotal prometheus.Counter
	loginsTotal       *prometheus.CounterVec
	accessDecisions   *prometheus.CounterVec
	proxyRequests     *prometheus.CounterVec

	// Histograms
	proxyDuration prometheus.Histogram

	// Gauges
	activeBridges prometheus.Gauge
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		authFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nodegate_auth_failures_total",
			Help: "Total number of rejected token verifications",
		}),

		loginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nodegate_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),

		accessDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nodegate_access_decisions_total",
			Help: "Total number of node access decisions by outcome",
		}, []string{"outcome"}),

		proxyRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nodegate_proxy_requests_total",
			Help: "Total number of proxied requests by upstream status code",
		}, []string{"code"}),

		proxyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nodegate_proxy_request_duration_seconds",
			Help:    "Duration of proxied upstream requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),

		activeBridges: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "nodegate_active_event_bridges",
			Help: "Number of live event bridges currently open",
		}),
	}
}

func (p *PrometheusCollector) RecordAuthFailure() {
	p.authFailuresTotal.Inc()
}

func (p *PrometheusCollector) RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	p.loginsTotal.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) RecordAccessDecision(err error) {
	outcome := "allowed"
	switch err {
	case nil:
	case domain.ErrNodeNotFound:
		outcome = "not_found"
	case domain.ErrNodeDisabled:
		outcome = "disabled"
	case domain.ErrNodeAccessDenied:
		outcome = "denied"
	default:
		outcome = "error"
	}
	p.accessDecisions.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) RecordProxyRequest(statusCode int, duration time.Duration) {
	p.proxyRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	p.proxyDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) BridgeOpened() {
	p.activeBridges.Inc()
}

func (p *PrometheusCollector) BridgeClosed() {
	p.activeBridges.Dec()
}

// Package metrics holds the Prometheus collectors for checks and alerts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/showwatch/internal/domain"
)

const namespace = "showwatch"

// Check outcomes.
const (
	OutcomeBookable  = "bookable"
	OutcomeWatching  = "watching"
	OutcomeHTTPError = "http_error"
	OutcomeFetchErr  = "fetch_error"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	reg *prometheus.Registry

	ChecksTotal          *prometheus.CounterVec
	FetchDurationSeconds *prometheus.HistogramVec
	SiteBookable         *prometheus.GaugeVec
	ScreenStatus         *prometheus.GaugeVec
	NotificationsTotal   *prometheus.CounterVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Site checks by outcome",
		}, []string{"site", "outcome"}),
		FetchDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Page fetch latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"site"}),
		SiteBookable: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_bookable",
			Help:      "1 when the latest check found an OPEN screen",
		}, []string{"site"}),
		ScreenStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "screen_status",
			Help:      "Latest status rank per screen (1 mentioned, 2 opening soon, 3 open)",
		}, []string{"site", "target"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Alert notifications by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Outcome buckets a check result for the checks_total counter.
func Outcome(r domain.CheckResult) string {
	switch {
	case r.Fetched && r.Bookable:
		return OutcomeBookable
	case r.Fetched:
		return OutcomeWatching
	case r.HTTPStatus != 0:
		return OutcomeHTTPError
	default:
		return OutcomeFetchErr
	}
}

func (m *Metrics) ObserveCheck(r domain.CheckResult) {
	if m == nil {
		return
	}
	site := string(r.SiteID)
	m.ChecksTotal.WithLabelValues(site, Outcome(r)).Inc()
	if r.LatencyMS > 0 {
		m.FetchDurationSeconds.WithLabelValues(site).Observe(r.LatencyMS / 1000)
	}
	if !r.Fetched {
		return
	}
	bookable := 0.0
	if r.Bookable {
		bookable = 1
	}
	m.SiteBookable.WithLabelValues(site).Set(bookable)
	for _, match := range r.Matches {
		m.ScreenStatus.WithLabelValues(site, match.Target).Set(float64(match.Status.Rank()))
	}
}

func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

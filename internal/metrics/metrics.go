// Package metrics счётчики Prometheus для шлюза, загрузок и регистраций.
// Все методы безопасны для nil-получателя, чтобы тесты могли не создавать метрики.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	actionsTotal    *prometheus.CounterVec
	actionDuration  *prometheus.HistogramVec
	uploadsTotal    *prometheus.CounterVec
	uploadBytes     *prometheus.HistogramVec
	registrations   *prometheus.CounterVec
	adminLoginTotal *prometheus.CounterVec
}

// New регистрирует метрики в собственном registry с префиксом namespace
func New(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_actions_total",
			Help:      "Gateway actions by name and outcome.",
		},
		[]string{"action", "status"},
	)
	m.actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_action_duration_seconds",
			Help:      "Gateway action latency including store calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	m.uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Media uploads by backend and outcome.",
		},
		[]string{"backend", "status"},
	)
	m.uploadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_upload_bytes",
			Help:      "Size of uploaded files.",
			// 10KB .. 10MB
			Buckets: []float64{10240, 102400, 1048576, 5242880, 10485760},
		},
		[]string{"backend"},
	)
	m.registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Vendor registration submissions by outcome and attachment state.",
		},
		[]string{"status", "attachment"},
	)
	m.adminLoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by outcome.",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(
		m.actionsTotal,
		m.actionDuration,
		m.uploadsTotal,
		m.uploadBytes,
		m.registrations,
		m.adminLoginTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler отдаёт /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAction(action string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, status(err)).Inc()
	m.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (m *Metrics) ObserveUpload(backend string, size int64, err error) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(backend, status(err)).Inc()
	if err == nil {
		m.uploadBytes.WithLabelValues(backend).Observe(float64(size))
	}
}

func (m *Metrics) ObserveRegistration(err error, withAttachment bool) {
	if m == nil {
		return
	}
	attachment := "missing"
	if withAttachment {
		attachment = "attached"
	}
	m.registrations.WithLabelValues(status(err), attachment).Inc()
}

func (m *Metrics) ObserveLogin(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.adminLoginTotal.WithLabelValues("success").Inc()
		return
	}
	m.adminLoginTotal.WithLabelValues("rejected").Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

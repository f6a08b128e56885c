package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "tempoiq"

// Metrics holds the prometheus collectors for API calls, decoding and
// publishing. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec   // By endpoint and status
	requestDuration *prometheus.HistogramVec // By endpoint
	decodeErrors    *prometheus.CounterVec   // By mode
	decodedObjects  *prometheus.CounterVec   // By kind
	publishedTotal  *prometheus.CounterVec   // By driver and status
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered; Push still works.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		}, []string{"endpoint", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "errors_total",
			Help:      "Total number of payloads that failed to decode",
		}, []string{"mode"}),

		decodedObjects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "objects_total",
			Help:      "Total number of decoded domain objects",
		}, []string{"kind"}), // kind: rule, rule_usage, device, series, datapoint

		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "messages_total",
			Help:      "Total number of messages forwarded to a broker",
		}, []string{"driver", "status"}), // status: success, error
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.decodeErrors,
		m.decodedObjects,
		m.publishedTotal,
	}
}

// ObserveRequest records one API call. A zero status means the request
// never got a response.
func (m *Metrics) ObserveRequest(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}

	m.requestsTotal.WithLabelValues(endpoint, label).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// IncDecodeErrors counts a payload the decoder rejected
func (m *Metrics) IncDecodeErrors(mode string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(mode).Inc()
}

// AddDecoded counts n decoded objects of a kind
func (m *Metrics) AddDecoded(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.decodedObjects.WithLabelValues(kind).Add(float64(n))
}

// IncPublished counts a forwarded message
func (m *Metrics) IncPublished(driver string, ok bool) {
	if m == nil {
		return
	}

	status := "success"
	if !ok {
		status = "error"
	}
	m.publishedTotal.WithLabelValues(driver, status).Inc()
}

// Push sends the current values to a prometheus pushgateway
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil {
		return nil
	}

	pusher := push.New(url, job)
	for _, c := range m.collectors() {
		pusher = pusher.Collector(c)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

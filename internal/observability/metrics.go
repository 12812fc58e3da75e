package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveConnections  prometheus.Gauge
	ConnectionEvents   *prometheus.CounterVec
	PresenceBroadcasts prometheus.Counter
	MessagesCreated    prometheus.Counter
	MessagesDelivered  *prometheus.CounterVec
	AssistantReplies   *prometheus.CounterVec
	ProviderErrors     *prometheus.CounterVec
	ProviderLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of live websocket connections.",
		}),
		ConnectionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_events_total",
			Help:      "Connection lifecycle events by type.",
		}, []string{"event"}),
		PresenceBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_broadcasts_total",
			Help:      "Full online-user snapshots broadcast to clients.",
		}),
		MessagesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_created_total",
			Help:      "Messages persisted through the REST surface.",
		}),
		MessagesDelivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_delivered_total",
			Help:      "Per-participant delivery outcomes.",
		}, []string{"outcome"}),
		AssistantReplies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_replies_total",
			Help:      "Assistant orchestration terminal states.",
		}, []string{"outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Text-completion provider failures by classification.",
		}, []string{"classification"}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_ms",
			Help:      "Text-completion provider call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
	}
}

func (m *Metrics) ObserveProviderLatency(d time.Duration) {
	m.ProviderLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

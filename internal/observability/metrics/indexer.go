package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IndexerMetrics instruments reindex runs in the indexer process.
type IndexerMetrics struct {
	registry *prometheus.Registry

	reindexTotal    *prometheus.CounterVec
	reindexDuration *prometheus.HistogramVec
	reindexInFlight prometheus.Gauge
	chunksIndexed   *prometheus.CounterVec
}

func NewIndexerMetrics(service string) *IndexerMetrics {
	registry := prometheus.NewRegistry()

	reindexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundchat",
			Subsystem: "indexer",
			Name:      "reindex_total",
			Help:      "Total reindex runs by status.",
		},
		[]string{"service", "status"},
	)
	reindexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundchat",
			Subsystem: "indexer",
			Name:      "reindex_duration_seconds",
			Help:      "Full reindex duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	reindexInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundchat",
			Subsystem: "indexer",
			Name:      "reindex_in_flight",
			Help:      "Number of reindex runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundchat",
			Subsystem: "indexer",
			Name:      "chunks_indexed_total",
			Help:      "Total chunks written to the vector index by namespace.",
		},
		[]string{"service", "namespace"},
	)

	registry.MustRegister(reindexTotal, reindexDuration, reindexInFlight, chunksIndexed)

	return &IndexerMetrics{
		registry:        registry,
		reindexTotal:    reindexTotal,
		reindexDuration: reindexDuration,
		reindexInFlight: reindexInFlight,
		chunksIndexed:   chunksIndexed,
	}
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexerMetrics) StartReindex() {
	m.reindexInFlight.Inc()
}

func (m *IndexerMetrics) FinishReindex(service string, duration time.Duration, err error) {
	m.reindexInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reindexTotal.WithLabelValues(service, status).Inc()
	m.reindexDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *IndexerMetrics) AddChunksIndexed(service, namespace string, count int) {
	if count <= 0 {
		return
	}
	m.chunksIndexed.WithLabelValues(service, namespace).Add(float64(count))
}

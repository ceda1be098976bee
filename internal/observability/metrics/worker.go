package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	rebuildTotal    *prometheus.CounterVec
	rebuildDuration *prometheus.HistogramVec
	rebuildInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	corpusDocuments prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	rebuildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faso",
			Subsystem: "worker",
			Name:      "rebuild_total",
			Help:      "Total corpus rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	rebuildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faso",
			Subsystem: "worker",
			Name:      "rebuild_duration_seconds",
			Help:      "Corpus rebuild duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	rebuildInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "faso",
			Subsystem: "worker",
			Name:      "rebuild_in_flight",
			Help:      "Number of in-flight corpus rebuilds.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faso",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between rebuild request and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	corpusDocuments := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "faso",
			Subsystem: "worker",
			Name:      "corpus_documents",
			Help:      "Documents indexed by the last successful rebuild.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(rebuildTotal, rebuildDuration, rebuildInFlight, queueLag, corpusDocuments)

	return &WorkerMetrics{
		registry:        registry,
		rebuildTotal:    rebuildTotal,
		rebuildDuration: rebuildDuration,
		rebuildInFlight: rebuildInFlight,
		queueLag:        queueLag,
		corpusDocuments: corpusDocuments,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRebuild() {
	m.rebuildInFlight.Inc()
}

func (m *WorkerMetrics) FinishRebuild(service string, duration time.Duration, err error) {
	m.rebuildInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.rebuildTotal.WithLabelValues(service, status).Inc()
	m.rebuildDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) SetCorpusDocuments(count int) {
	m.corpusDocuments.Set(float64(count))
}

package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry                *prometheus.Registry
	evaluationsProcessed    prometheus.Counter
	evaluationsFailed       prometheus.Counter
	evaluationDuration      prometheus.Histogram
	probabilityDistribution prometheus.Histogram
	tierTotal               *prometheus.CounterVec
	upstreamErrors          *prometheus.CounterVec
	logger                  *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		evaluationsProcessed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "risk_evaluations_total",
			Help: "Total number of completed risk evaluations",
		}),
		evaluationsFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "risk_evaluations_failed_total",
			Help: "Total number of evaluations that returned an error",
		}),
		evaluationDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_evaluation_duration_seconds",
			Help:    "Time taken to produce a risk evaluation",
			Buckets: prometheus.DefBuckets,
		}),
		probabilityDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_probability_distribution",
			Help:    "Distribution of default probabilities",
			Buckets: []float64{0, 0.2, 0.5, 1},
		}),
		tierTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "risk_tier_total",
			Help: "Evaluations per risk tier",
		}, []string{"tier"}),
		upstreamErrors: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_upstream_errors_total",
			Help: "Failed calls to the remote predictor",
		}, []string{"reason"}),
		logger: logger,
	}

	return collector
}

// RecordEvaluation is safe for concurrent use; prometheus metrics synchronize internally.
func (m *MetricsCollector) RecordEvaluation(duration time.Duration, probability float64, tier string, success bool) {
	m.evaluationDuration.Observe(duration.Seconds())

	if !success {
		m.evaluationsFailed.Inc()
		return
	}

	m.evaluationsProcessed.Inc()
	m.probabilityDistribution.Observe(probability)
	m.tierTotal.WithLabelValues(tier).Inc()
}

func (m *MetricsCollector) RecordUpstreamError(reason string) {
	m.upstreamErrors.WithLabelValues(reason).Inc()
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

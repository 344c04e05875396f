// Package metrics provides Prometheus metrics instrumentation for the
// benchmark run pipeline.
//
// It exposes operational metrics about the run's progress and the ensemble's
// behavior: per-detector scoring latency, window seal timing, the evolving
// ensemble weights, degradation, and error tracking. All metrics are exposed
// via the /metrics HTTP endpoint for Prometheus scraping.
//
// Metrics exposed:
//   - streamsad_detector_observe_seconds: Histogram of per-detector scoring duration
//   - streamsad_window_seal_seconds: Histogram of window seal duration
//   - streamsad_instances_total: Counter of processed stream instances
//   - streamsad_windows_total: Counter of sealed windows
//   - streamsad_window_auc: Gauge of the latest sealed window's ROC AUC
//   - streamsad_ensemble_weight: Gauge of each detector's current weight
//   - streamsad_degraded_detectors: Gauge of degraded detector count
//   - streamsad_errors_total: Counter of errors by component and reason
//
// All metrics include the dataset and model labels so sweep dashboards can
// slice by run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the benchmark.
type Metrics struct {
	DetectorObserveSeconds *prometheus.HistogramVec
	WindowSealSeconds      prometheus.Histogram
	InstancesTotal         prometheus.Counter
	WindowsTotal           prometheus.Counter
	WindowAUC              prometheus.Gauge
	EnsembleWeight         *prometheus.GaugeVec
	DegradedDetectors      prometheus.Gauge
	ErrorsTotal            *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(dataset, model string) *Metrics {
	constLabels := prometheus.Labels{
		"dataset": dataset,
		"model":   model,
	}

	return &Metrics{
		DetectorObserveSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "streamsad_detector_observe_seconds",
			Help:        "Time spent scoring and updating one detector on one instance",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"detector"}),

		WindowSealSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "streamsad_window_seal_seconds",
			Help:        "Time spent computing window metrics and updating weights at a seal",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),

		InstancesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "streamsad_instances_total",
			Help:        "Total stream instances processed",
			ConstLabels: constLabels,
		}),

		WindowsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "streamsad_windows_total",
			Help:        "Total metric windows sealed",
			ConstLabels: constLabels,
		}),

		WindowAUC: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "streamsad_window_auc",
			Help:        "ROC AUC of the most recently sealed window (NaN when undefined)",
			ConstLabels: constLabels,
		}),

		EnsembleWeight: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "streamsad_ensemble_weight",
			Help:        "Current ensemble weight of each detector",
			ConstLabels: constLabels,
		}, []string{"detector"}),

		DegradedDetectors: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "streamsad_degraded_detectors",
			Help:        "Number of detectors removed from the active set",
			ConstLabels: constLabels,
		}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "streamsad_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: constLabels,
		}, []string{"component", "reason"}),
	}
}

// RecordObserve records one detector invocation.
func (m *Metrics) RecordObserve(detector string, seconds float64) {
	m.DetectorObserveSeconds.WithLabelValues(detector).Observe(seconds)
}

// RecordInstance counts one processed stream instance.
func (m *Metrics) RecordInstance() {
	m.InstancesTotal.Inc()
}

// RecordWindow records a sealed window and the weights that came out of it.
func (m *Metrics) RecordWindow(auc float64, weights map[string]float64) {
	m.WindowsTotal.Inc()
	m.WindowAUC.Set(auc)
	for id, w := range weights {
		m.EnsembleWeight.WithLabelValues(id).Set(w)
	}
}

// RecordSeal records the time spent sealing a window.
func (m *Metrics) RecordSeal(seconds float64) {
	m.WindowSealSeconds.Observe(seconds)
}

// RecordDegraded sets the degraded detector count.
func (m *Metrics) RecordDegraded(count int) {
	m.DegradedDetectors.Set(float64(count))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}

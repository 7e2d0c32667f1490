// Package metrics counts soil reductions and processed datasets in a private prometheus
// registry that the command writes out in the text exposition format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"agmipkit/internal/soil"
)

const namespace = "agmip"

// Recorder implements soil.Observer. All methods are safe for concurrent use.
type Recorder struct {
	registry   *prometheus.Registry
	reductions prometheus.Counter
	layersIn   prometheus.Counter
	layersOut  prometheus.Counter
	merges     *prometheus.CounterVec
	datasets   *prometheus.CounterVec
	duration   prometheus.Histogram
}

var _ soil.Observer = (*Recorder)(nil)

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		reductions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soil",
			Name:      "reductions_total",
			Help:      "Soil profiles reduced.",
		}),
		layersIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soil",
			Name:      "layers_in_total",
			Help:      "Soil layers received by the reducer.",
		}),
		layersOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soil",
			Name:      "layers_out_total",
			Help:      "Soil layers produced by the reducer.",
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soil",
			Name:      "merges_total",
			Help:      "Layer merges by cause.",
		}, []string{"cause"}),
		datasets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_total",
			Help:      "Dataset files processed by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_duration_seconds",
			Help:      "Time spent processing one dataset file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.reductions, r.layersIn, r.layersOut, r.merges, r.datasets, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveReduction records one completed reduction.
func (r *Recorder) ObserveReduction(stats soil.ReductionStats) {
	r.reductions.Inc()
	r.layersIn.Add(float64(stats.LayersIn))
	r.layersOut.Add(float64(stats.LayersOut))
	r.merges.WithLabelValues("criterion").Add(float64(stats.CriterionMerge))
	r.merges.WithLabelValues("forced").Add(float64(stats.ForcedMerge))
}

// ObserveDataset records one processed dataset file.
func (r *Recorder) ObserveDataset(err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.datasets.WithLabelValues(result).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

package slam

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts estimator activity. A nil *Metrics records nothing.
type Metrics struct {
	Steps           prometheus.Counter
	StepSeconds     prometheus.Histogram
	BatchIterations prometheus.Counter
	LastBatchDelta  prometheus.Gauge
	SeededNodes     prometheus.Counter
}

// NewMetrics creates the estimator collectors and registers them with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Steps: factory.NewCounter(prometheus.CounterOpts{
			Name: "graphslam_steps_total",
			Help: "Total number of incremental steps solved",
		}),
		StepSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "graphslam_step_duration_seconds",
			Help:    "Time spent solving one incremental step",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		BatchIterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "graphslam_batch_iterations_total",
			Help: "Total number of batch Gauss-Newton iterations",
		}),
		LastBatchDelta: factory.NewGauge(prometheus.GaugeOpts{
			Name: "graphslam_batch_last_delta",
			Help: "Mean squared correction of the most recent batch iteration",
		}),
		SeededNodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "graphslam_seeded_nodes_total",
			Help: "Total number of node estimates seeded from a relative measurement",
		}),
	}
}

func (m *Metrics) stepped(took time.Duration) {
	if m == nil {
		return
	}
	m.Steps.Inc()
	m.StepSeconds.Observe(took.Seconds())
}

func (m *Metrics) iterated(delta float64) {
	if m == nil {
		return
	}
	m.BatchIterations.Inc()
	m.LastBatchDelta.Set(delta)
}

func (m *Metrics) seeded(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SeededNodes.Add(float64(n))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "fvloads"
	subsystem = "solver"
)

// Metrics instruments the force evaluation of one process. All methods are safe on a nil
// receiver so instrumentation stays optional.
type Metrics struct {
	PassDuration       *prometheus.HistogramVec
	PassesTotal        *prometheus.CounterVec
	BoundaryVertices   *prometheus.GaugeVec
	ReductionsTotal    *prometheus.CounterVec
	ColoringEfficiency *prometheus.GaugeVec
	ColorClasses       *prometheus.GaugeVec
	StrategyTotal      *prometheus.CounterVec
	LowEfficiencyTotal prometheus.Counter
}

// New registers the solver metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PassDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one boundary integration pass including its reductions",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"rank", "pass"}),

		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "passes_total",
			Help:      "Boundary integration passes completed",
		}, []string{"rank", "pass"}),

		BoundaryVertices: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "boundary_vertices",
			Help:      "Boundary vertices integrated by a pass on this rank, halo included",
		}, []string{"rank", "pass"}),

		ReductionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reductions_total",
			Help:      "Collective reductions issued",
		}, []string{"rank", "kind"}),

		ColoringEfficiency: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "coloring",
			Name:      "efficiency",
			Help:      "Estimated parallel efficiency of the edge coloring",
		}, []string{"rank"}),

		ColorClasses: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "coloring",
			Name:      "classes",
			Help:      "Number of color classes in use",
		}, []string{"rank"}),

		StrategyTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coloring",
			Name:      "strategy_total",
			Help:      "Edge loop strategy decisions",
		}, []string{"strategy"}),

		LowEfficiencyTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coloring",
			Name:      "low_efficiency_warnings_total",
			Help:      "Low coloring efficiency warnings emitted",
		}),
	}
}

// ObservePass records one completed pass
func (m *Metrics) ObservePass(rank, pass string, d time.Duration, vertices int) {
	if m == nil {
		return
	}
	m.PassDuration.WithLabelValues(rank, pass).Observe(d.Seconds())
	m.PassesTotal.WithLabelValues(rank, pass).Inc()
	m.BoundaryVertices.WithLabelValues(rank, pass).Set(float64(vertices))
}

// AddReductions counts n collective calls of the given kind
func (m *Metrics) AddReductions(rank, kind string, n int) {
	if m == nil {
		return
	}
	m.ReductionsTotal.WithLabelValues(rank, kind).Add(float64(n))
}

// SetColoring records the scheduling decision of a rank
func (m *Metrics) SetColoring(rank, strategy string, efficiency float64, classes int) {
	if m == nil {
		return
	}
	m.ColoringEfficiency.WithLabelValues(rank).Set(efficiency)
	m.ColorClasses.WithLabelValues(rank).Set(float64(classes))
	m.StrategyTotal.WithLabelValues(strategy).Inc()
}

// LowEfficiency counts an emitted low efficiency warning
func (m *Metrics) LowEfficiency() {
	if m == nil {
		return
	}
	m.LowEfficiencyTotal.Inc()
}

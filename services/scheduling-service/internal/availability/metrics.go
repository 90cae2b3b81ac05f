package availability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution sources, used as the "source" metric label.
const (
	SourceEncodedSlots   = "encoded_slots"
	SourceRawSlots       = "raw_slots"
	SourceCanonicalSlots = "canonical_slots"
	SourceExecution      = "execution"
	SourceSynthetic      = "synthetic"
)

type Metrics struct {
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on reg and panics on a
// registration conflict, like the promauto helpers.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teambook",
			Subsystem: "availability",
			Name:      "resolutions_total",
			Help:      "Availability requests answered, by where the slots came from.",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teambook",
			Subsystem: "availability",
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving availability, including upstream polling.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		}, []string{"source"}),
	}
	reg.MustRegister(m.resolutions, m.duration)
	return m
}

func (m *Metrics) observe(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
	m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

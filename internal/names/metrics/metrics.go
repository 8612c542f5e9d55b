package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the name registry.
type Metrics struct {
	NamesSet        prometheus.Counter
	NameRejections  *prometheus.CounterVec
	WriterChanges   *prometheus.CounterVec
	SetNameDuration prometheus.Histogram
}

// New registers the name registry metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NamesSet: factory.NewCounter(prometheus.CounterOpts{
			Name: "provenance_names_set_total",
			Help: "Total number of names bound to addresses",
		}),
		NameRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_name_rejections_total",
			Help: "SetName calls rejected, by error code",
		}, []string{"code"}),
		WriterChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_name_writer_changes_total",
			Help: "Authorized-writer grants and revocations",
		}, []string{"action"}),
		SetNameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "provenance_set_name_duration_seconds",
			Help:    "Duration of SetName operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementNameSet() {
	m.NamesSet.Inc()
}

func (m *Metrics) IncrementRejection(code string) {
	m.NameRejections.WithLabelValues(code).Inc()
}

// IncrementWriterChange records a grant or revoke.
func (m *Metrics) IncrementWriterChange(action string) {
	m.WriterChanges.WithLabelValues(action).Inc()
}

// ObserveSetName records the duration of a SetName operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSetName(start time.Time) {
	m.SetNameDuration.Observe(time.Since(start).Seconds())
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for catalog writes.
type Metrics struct {
	SeriesCreated     prometheus.Counter
	AssetsRegistered  prometheus.Counter
	TagMutations      *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SeriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "provenance_series_created_total",
			Help: "Total number of series created across catalogs",
		}),
		AssetsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "provenance_assets_registered_total",
			Help: "Total number of assets registered across catalogs",
		}),
		TagMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_tag_mutations_total",
			Help: "Tag additions and removals",
		}, []string{"action"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provenance_catalog_operation_duration_seconds",
			Help:    "Duration of catalog write operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementSeriesCreated() {
	m.SeriesCreated.Inc()
}

func (m *Metrics) IncrementAssetRegistered() {
	m.AssetsRegistered.Inc()
}

// IncrementTagMutation records an "add" or "remove".
func (m *Metrics) IncrementTagMutation(action string, n int) {
	m.TagMutations.WithLabelValues(action).Add(float64(n))
}

// ObserveOperation records the duration of a write.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

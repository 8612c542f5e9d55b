package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for catalog provisioning.
type Metrics struct {
	CatalogsProvisioned prometheus.Counter
	ProvisionRejections *prometheus.CounterVec
	ProvisionDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CatalogsProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "provenance_catalogs_provisioned_total",
			Help: "Total number of catalogs provisioned by the factory",
		}),
		ProvisionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_provision_rejections_total",
			Help: "Provisioning attempts rejected, by error code",
		}, []string{"code"}),
		ProvisionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "provenance_provision_duration_seconds",
			Help:    "Duration of catalog provisioning",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementProvisioned() {
	m.CatalogsProvisioned.Inc()
}

func (m *Metrics) IncrementRejection(code string) {
	m.ProvisionRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveProvision(start time.Time) {
	m.ProvisionDuration.Observe(time.Since(start).Seconds())
}

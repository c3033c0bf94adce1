package billing

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	runs     *prometheus.CounterVec
	events   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the sync metrics on reg. A nil reg yields working but
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kea",
			Subsystem: "billing",
			Name:      "sync_runs_total",
			Help:      "Billing sync runs by result.",
		}, []string{"result"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kea",
			Subsystem: "billing",
			Name:      "events_applied_total",
			Help:      "Billing feed events applied to the ledger.",
		}, []string{"event"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kea",
			Subsystem: "billing",
			Name:      "sync_duration_seconds",
			Help:      "Wall time of a billing sync run.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(result string, counts Counts, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.events.WithLabelValues(string(EventCreated)).Add(float64(counts.Created))
	m.events.WithLabelValues(string(EventUpdated)).Add(float64(counts.Updated))
	m.events.WithLabelValues(string(EventDeleted)).Add(float64(counts.Deleted))
	m.events.WithLabelValues("skipped").Add(float64(counts.Skipped))
	m.duration.Observe(seconds)
}

// resultLabel classifies a sync error for the runs counter.
func resultLabel(err error) string {
	var (
		protocolErr     *ProtocolError
		gatewayErr      *GatewayError
		connectivityErr *ConnectivityError
		storageErr      *StorageError
		ackErr          *AckError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ackErr):
		return "ack_error"
	case errors.As(err, &storageErr):
		return "storage_error"
	case errors.As(err, &protocolErr):
		return "protocol_error"
	case errors.As(err, &gatewayErr):
		return "gateway_error"
	case errors.As(err, &connectivityErr):
		return "connectivity_error"
	case errors.Is(err, ErrConfig), errors.Is(err, ErrNoBillingAccount):
		return "config_error"
	default:
		return "error"
	}
}

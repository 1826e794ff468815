package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mileage"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	OperationBackup  = "backup"
	OperationRestore = "restore"
)

// Metrics is safe to use as a nil pointer, which records nothing.
type Metrics struct {
	tripsSaved     *prometheus.CounterVec
	backups        *prometheus.CounterVec
	changesDropped prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tripsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trips_saved_total",
			Help:      "Trips written, by resulting status.",
		}, []string{"status"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_operations_total",
			Help:      "Remote backup and restore attempts, by outcome.",
		}, []string{"operation", "outcome"}),
		changesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_publish_failures_total",
			Help:      "Change messages that could not be published.",
		}),
	}
	reg.MustRegister(m.tripsSaved, m.backups, m.changesDropped)
	return m
}

func (m *Metrics) TripSaved(status string) {
	if m == nil {
		return
	}
	m.tripsSaved.WithLabelValues(status).Inc()
}

func (m *Metrics) BackupDone(operation string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.backups.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.changesDropped.Inc()
}

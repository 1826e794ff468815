// Package repository is the domain facade over storage, the change bus and
// remote backup.
package repository

import (
	"github.com/sirupsen/logrus"

	"mileage/backup"
	dbt "mileage/db/db"
	"mileage/metrics"
	"mileage/mq/mq"
)

type Repository struct {
	db      dbt.DBWrapper
	bus     mq.ChangeMessageQueue
	backup  *backup.Backup
	metrics *metrics.Metrics
}

// New builds a Repository. A nil backup disables remote backup and restore;
// nil metrics record nothing.
func New(db dbt.DBWrapper, bus mq.ChangeMessageQueue, b *backup.Backup, m *metrics.Metrics) *Repository {
	return &Repository{db: db, bus: bus, backup: b, metrics: m}
}

// publish announces a committed write. A lost message only delays live
// views, so it never fails the write.
func (r *Repository) publish(table mq.Table, action mq.Action, userID string, rowID string) {
	err := r.bus.Publish(mq.ChangeMessage{Table: table, Action: action, UserID: userID, RowID: rowID})
	if err != nil {
		r.metrics.PublishFailed()
		logrus.WithFields(logrus.Fields{
			"table":  table,
			"action": action.String(),
			"row":    rowID,
		}).Warnf("failed to publish change: %v", err)
	}
}

func logFailure(op string, userID string, err error) error {
	if err != nil {
		logrus.WithField("user", userID).Errorf("%s: %v", op, err)
	}
	return err
}

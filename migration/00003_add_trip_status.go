package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddTripStatus, downAddTripStatus)
}

func upAddTripStatus(ctx context.Context, tx *sql.Tx) error {
	err := addColumnIfMissing(ctx, tx, "trips", "status", "TEXT NOT NULL DEFAULT 'DRAFT'")
	if err != nil {
		return err
	}

	// rows written before drafts existed were only ever saved once calculated
	_, err = tx.ExecContext(ctx, `
		UPDATE trips
		SET status = 'COMPLETED'
		WHERE trip_distance IS NOT NULL AND fuel_efficiency IS NOT NULL;
	`)
	return err
}

func downAddTripStatus(ctx context.Context, tx *sql.Tx) error {
	return dropColumnIfExists(ctx, tx, "trips", "status")
}

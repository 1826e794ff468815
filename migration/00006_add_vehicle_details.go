package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddVehicleDetails, downAddVehicleDetails)
}

var vehicleDetailColumns = []string{"make", "model", "year", "registration_number"}

func upAddVehicleDetails(ctx context.Context, tx *sql.Tx) error {
	for _, column := range vehicleDetailColumns {
		if err := addColumnIfMissing(ctx, tx, "vehicles", column, "TEXT NOT NULL DEFAULT ''"); err != nil {
			return err
		}
	}
	return nil
}

func downAddVehicleDetails(ctx context.Context, tx *sql.Tx) error {
	for _, column := range vehicleDetailColumns {
		if err := dropColumnIfExists(ctx, tx, "vehicles", column); err != nil {
			return err
		}
	}
	return nil
}

package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddTripVehicleID, downAddTripVehicleID)
}

func upAddTripVehicleID(ctx context.Context, tx *sql.Tx) error {
	err := addColumnIfMissing(ctx, tx, "trips", "vehicle_id", "TEXT")
	if err != nil {
		return err
	}

	// trips only knew the vehicle by name so far
	_, err = tx.ExecContext(ctx, `
		UPDATE trips
		SET vehicle_id = (
			SELECT vehicles.id FROM vehicles
			WHERE vehicles.name = trips.vehicle_name
			ORDER BY vehicles.created_at
			LIMIT 1
		)
		WHERE vehicle_id IS NULL;
	`)
	return err
}

func downAddTripVehicleID(ctx context.Context, tx *sql.Tx) error {
	return dropColumnIfExists(ctx, tx, "trips", "vehicle_id")
}

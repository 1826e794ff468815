package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upRebuildTrips, downRebuildTrips)
}

const tripColumnsV5 = `id, vehicle_id, vehicle_name, start_mileage, end_mileage, fuel_filled,
	trip_distance, fuel_efficiency, status, created_at, updated_at`

// upRebuildTrips makes vehicle_id mandatory. Trips whose vehicle could not be
// resolved in version 4 no longer belong to anything and are not carried over.
func upRebuildTrips(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE trips_v5 (
			id TEXT NOT NULL PRIMARY KEY,
			vehicle_id TEXT NOT NULL,
			vehicle_name TEXT NOT NULL,
			start_mileage %[1]s,
			end_mileage %[1]s,
			fuel_filled %[1]s,
			trip_distance %[1]s,
			fuel_efficiency %[1]s,
			status TEXT NOT NULL,
			created_at %[2]s NOT NULL,
			updated_at %[2]s NOT NULL
		);
	`, floatType(), timeType()))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO trips_v5 (%[1]s)
		SELECT %[1]s FROM trips
		WHERE vehicle_id IS NOT NULL;
	`, tripColumnsV5))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE trips;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `ALTER TABLE trips_v5 RENAME TO trips;`)
	return err
}

// downRebuildTrips keeps the table shape; the NOT NULL constraint is harmless for version 4.
func downRebuildTrips(ctx context.Context, tx *sql.Tx) error {
	return nil
}

package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInitTables, downInitTables)
}

func upInitTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE vehicles (
			id TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		);
	`, timeType()))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE trips (
			id TEXT NOT NULL PRIMARY KEY,
			vehicle_name TEXT NOT NULL,
			start_mileage %[1]s,
			end_mileage %[1]s,
			fuel_filled %[1]s,
			trip_distance %[1]s,
			fuel_efficiency %[1]s,
			created_at %[2]s NOT NULL,
			updated_at %[2]s NOT NULL
		);
	`, floatType(), timeType()))
	return err
}

func downInitTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS trips;`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS vehicles;`)
	return err
}

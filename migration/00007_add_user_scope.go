package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	dbt "mileage/db/db"
)

func init() {
	goose.AddMigrationContext(upAddUserScope, downAddUserScope)
}

func upAddUserScope(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"vehicles", "trips"} {
		if err := addColumnIfMissing(ctx, tx, table, "user_id", "TEXT"); err != nil {
			return err
		}
		// also covers a column left behind by an earlier partial run
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s
			SET user_id = '%s'
			WHERE user_id IS NULL OR user_id = '';
		`, table, dbt.LegacyUserID))
		if err != nil {
			return err
		}
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_vehicles_user_id ON vehicles(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_trips_user_id ON trips(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_trips_vehicle_id_user_id ON trips(vehicle_id, user_id);`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func downAddUserScope(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		`DROP INDEX IF EXISTS idx_trips_vehicle_id_user_id;`,
		`DROP INDEX IF EXISTS idx_trips_user_id;`,
		`DROP INDEX IF EXISTS idx_vehicles_user_id;`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if err := dropColumnIfExists(ctx, tx, "trips", "user_id"); err != nil {
		return err
	}
	return dropColumnIfExists(ctx, tx, "vehicles", "user_id")
}

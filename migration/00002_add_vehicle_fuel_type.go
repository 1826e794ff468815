package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddVehicleFuelType, downAddVehicleFuelType)
}

func upAddVehicleFuelType(ctx context.Context, tx *sql.Tx) error {
	// nullable: vehicles created before fuel types existed have none
	return addColumnIfMissing(ctx, tx, "vehicles", "fuel_type", "TEXT")
}

func downAddVehicleFuelType(ctx context.Context, tx *sql.Tx) error {
	return dropColumnIfExists(ctx, tx, "vehicles", "fuel_type")
}

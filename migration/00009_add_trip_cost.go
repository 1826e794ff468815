package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddTripCost, downAddTripCost)
}

func upAddTripCost(ctx context.Context, tx *sql.Tx) error {
	if err := addColumnIfMissing(ctx, tx, "trips", "fuel_cost", floatType()); err != nil {
		return err
	}
	if err := addColumnIfMissing(ctx, tx, "trips", "fuel_price_per_unit", floatType()); err != nil {
		return err
	}
	return addColumnIfMissing(ctx, tx, "trips", "currency_id", "TEXT")
}

func downAddTripCost(ctx context.Context, tx *sql.Tx) error {
	for _, column := range []string{"currency_id", "fuel_price_per_unit", "fuel_cost"} {
		if err := dropColumnIfExists(ctx, tx, "trips", column); err != nil {
			return err
		}
	}
	return nil
}

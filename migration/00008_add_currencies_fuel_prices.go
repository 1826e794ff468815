package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddCurrenciesFuelPrices, downAddCurrenciesFuelPrices)
}

type seedCurrency struct {
	id, code, name, symbol string
	isDefault              bool
}

// seedCurrencies are inserted right after the currencies table is created.
var seedCurrencies = []seedCurrency{
	{id: "usd", code: "USD", name: "US Dollar", symbol: "$", isDefault: true},
	{id: "eur", code: "EUR", name: "Euro", symbol: "€"},
	{id: "inr", code: "INR", name: "Indian Rupee", symbol: "₹"},
	{id: "gbp", code: "GBP", name: "British Pound", symbol: "£"},
}

func upAddCurrenciesFuelPrices(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS currencies (
			id TEXT NOT NULL PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS fuel_prices (
			id TEXT NOT NULL PRIMARY KEY,
			fuel_type TEXT NOT NULL,
			price_per_unit %s NOT NULL,
			currency_id TEXT NOT NULL,
			last_updated %s NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);
	`, floatType(), timeType()))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_fuel_prices_type_active ON fuel_prices(fuel_type, is_active);`)
	if err != nil {
		return err
	}

	// a table surviving from a partial run keeps whatever it already holds
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM currencies;`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	insert := `INSERT INTO currencies (id, code, name, symbol, is_default) VALUES ($1, $2, $3, $4, $5);`
	if currentDialect() == DialectSQLite {
		insert = `INSERT INTO currencies (id, code, name, symbol, is_default) VALUES (?, ?, ?, ?, ?);`
	}
	for _, c := range seedCurrencies {
		if _, err := tx.ExecContext(ctx, insert, c.id, c.code, c.name, c.symbol, c.isDefault); err != nil {
			return fmt.Errorf("failed to seed currency %s: %w", c.code, err)
		}
	}
	return nil
}

func downAddCurrenciesFuelPrices(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS fuel_prices;`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS currencies;`)
	return err
}

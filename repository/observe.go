package repository

import (
	"context"

	dbt "mileage/db/db"
	"mileage/mq/mq"
	"mileage/watch"
)

// ObserveVehicles streams the user's vehicles, current list first.
func (r *Repository) ObserveVehicles(ctx context.Context, userID string) (<-chan []dbt.Vehicle, error) {
	return watch.Observe(ctx, r.bus, userID, func(ctx context.Context) ([]dbt.Vehicle, error) {
		return r.db.ListVehicles(ctx, userID)
	}, mq.TableVehicles)
}

// ObserveTrips also follows vehicles since listed trips carry the current
// vehicle name.
func (r *Repository) ObserveTrips(ctx context.Context, userID string) (<-chan []dbt.Trip, error) {
	return watch.Observe(ctx, r.bus, userID, func(ctx context.Context) ([]dbt.Trip, error) {
		return r.db.ListTrips(ctx, userID)
	}, mq.TableTrips, mq.TableVehicles)
}

func (r *Repository) ObserveCurrencies(ctx context.Context) (<-chan []dbt.Currency, error) {
	return watch.Observe(ctx, r.bus, "", r.db.ListCurrencies, mq.TableCurrencies)
}

func (r *Repository) ObserveActiveFuelPrices(ctx context.Context) (<-chan []dbt.FuelPrice, error) {
	return watch.Observe(ctx, r.bus, "", r.db.ListActiveFuelPrices, mq.TableFuelPrices)
}

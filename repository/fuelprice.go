package repository

import (
	"context"
	"errors"

	dbt "mileage/db/db"
	"mileage/mq/mq"
)

func (r *Repository) ListActiveFuelPrices(ctx context.Context) ([]dbt.FuelPrice, error) {
	prices, err := r.db.ListActiveFuelPrices(ctx)
	return prices, logFailure("list fuel prices", "", err)
}

func (r *Repository) GetFuelPrice(ctx context.Context, id string) (*dbt.FuelPrice, error) {
	return r.db.GetFuelPrice(ctx, id)
}

// GetLatestFuelPrice returns nil without error when no active price exists.
func (r *Repository) GetLatestFuelPrice(ctx context.Context, fuelType dbt.FuelType) (*dbt.FuelPrice, error) {
	return orNil(r.db.GetLatestFuelPrice(ctx, fuelType))
}

func (r *Repository) GetLatestFuelPriceByCurrency(ctx context.Context, fuelType dbt.FuelType, currencyID string) (*dbt.FuelPrice, error) {
	return orNil(r.db.GetLatestFuelPriceByCurrency(ctx, fuelType, currencyID))
}

// AddFuelPrice stores price as the single active price of its fuel type.
func (r *Repository) AddFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	if err := r.db.AddFuelPrice(ctx, price); err != nil {
		return logFailure("add fuel price", "", err)
	}
	r.publish(mq.TableFuelPrices, mq.ActionCreate, "", price.ID)
	return nil
}

func (r *Repository) UpdateFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	if err := r.db.UpdateFuelPrice(ctx, price); err != nil {
		return logFailure("update fuel price", "", err)
	}
	r.publish(mq.TableFuelPrices, mq.ActionUpdate, "", price.ID)
	return nil
}

func (r *Repository) DeleteFuelPrice(ctx context.Context, id string) error {
	if err := r.db.DeleteFuelPrice(ctx, &dbt.FuelPrice{ID: id}); err != nil {
		return logFailure("delete fuel price", "", err)
	}
	r.publish(mq.TableFuelPrices, mq.ActionDelete, "", id)
	return nil
}

func orNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, dbt.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

package gormdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbt "mileage/db/db"
)

var fuelPriceColumns = []string{"fuel_type", "price_per_unit", "currency_id", "last_updated", "is_active"}

// ListActiveFuelPrices returns the active price of each fuel type, newest first.
func (gdb *GORMDBWrapper) ListActiveFuelPrices(ctx context.Context) ([]dbt.FuelPrice, error) {
	var models []FuelPriceModel
	result := gdb.db.WithContext(ctx).Where("is_active = ?", true).Order("last_updated DESC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list fuel prices: %w", result.Error)
	}
	prices := make([]dbt.FuelPrice, 0, len(models))
	for _, m := range models {
		prices = append(prices, m.toDomain())
	}
	return prices, nil
}

func (gdb *GORMDBWrapper) GetFuelPrice(ctx context.Context, id string) (*dbt.FuelPrice, error) {
	var m FuelPriceModel
	result := gdb.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("fuel price with ID %s %w", id, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fuel price %s: %w", id, result.Error)
	}
	p := m.toDomain()
	return &p, nil
}

func (gdb *GORMDBWrapper) GetLatestFuelPrice(ctx context.Context, fuelType dbt.FuelType) (*dbt.FuelPrice, error) {
	return gdb.latestFuelPrice(gdb.db.WithContext(ctx).Where("fuel_type = ? AND is_active = ?", string(fuelType), true), fuelType)
}

func (gdb *GORMDBWrapper) GetLatestFuelPriceByCurrency(ctx context.Context, fuelType dbt.FuelType, currencyID string) (*dbt.FuelPrice, error) {
	return gdb.latestFuelPrice(gdb.db.WithContext(ctx).Where("fuel_type = ? AND currency_id = ? AND is_active = ?", string(fuelType), currencyID, true), fuelType)
}

func (gdb *GORMDBWrapper) latestFuelPrice(query *gorm.DB, fuelType dbt.FuelType) (*dbt.FuelPrice, error) {
	var m FuelPriceModel
	result := query.Order("last_updated DESC").First(&m)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("active %s price %w", fuelType, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest %s price: %w", fuelType, result.Error)
	}
	p := m.toDomain()
	return &p, nil
}

func deactivateFuelPrices(tx *gorm.DB, fuelType string, exceptID string) error {
	result := tx.Model(&FuelPriceModel{}).
		Where("fuel_type = ? AND is_active = ? AND id <> ?", fuelType, true, exceptID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate %s prices: %w", fuelType, result.Error)
	}
	return nil
}

// AddFuelPrice stores price as the one active price of its fuel type.
func (gdb *GORMDBWrapper) AddFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	if price.ID == "" {
		price.ID = uuid.NewString()
	}
	if price.LastUpdated.IsZero() {
		price.LastUpdated = nowUTC()
	}
	price.IsActive = true
	m := fuelPriceFromDomain(price)

	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deactivateFuelPrices(tx, m.FuelType, m.ID); err != nil {
			return err
		}
		result := tx.Create(&m)
		if result.Error != nil {
			return fmt.Errorf("failed to add fuel price %s: %w", m.ID, result.Error)
		}
		return nil
	})
}

func (gdb *GORMDBWrapper) UpdateFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	m := fuelPriceFromDomain(price)
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.IsActive {
			if err := deactivateFuelPrices(tx, m.FuelType, m.ID); err != nil {
				return err
			}
		}
		result := tx.Model(&FuelPriceModel{}).Where("id = ?", m.ID).Select(fuelPriceColumns).Updates(&m)
		if result.Error != nil {
			return fmt.Errorf("failed to update fuel price with ID %s: %w", m.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("fuel price with ID %s %w for update", m.ID, dbt.ErrNotFound)
		}
		return nil
	})
}

func (gdb *GORMDBWrapper) DeleteFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	result := gdb.db.WithContext(ctx).Where("id = ?", price.ID).Delete(&FuelPriceModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete fuel price with ID %s: %w", price.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("fuel price with ID %s %w for delete", price.ID, dbt.ErrNotFound)
	}
	return nil
}

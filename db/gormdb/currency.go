package gormdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbt "mileage/db/db"
)

var currencyColumns = []string{"code", "name", "symbol", "is_default"}

// ListCurrencies returns every currency, the default one first.
func (gdb *GORMDBWrapper) ListCurrencies(ctx context.Context) ([]dbt.Currency, error) {
	var models []CurrencyModel
	result := gdb.db.WithContext(ctx).Order("is_default DESC").Order("name ASC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", result.Error)
	}
	currencies := make([]dbt.Currency, 0, len(models))
	for _, m := range models {
		currencies = append(currencies, m.toDomain())
	}
	return currencies, nil
}

func (gdb *GORMDBWrapper) GetCurrency(ctx context.Context, id string) (*dbt.Currency, error) {
	var m CurrencyModel
	result := gdb.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("currency with ID %s %w", id, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get currency %s: %w", id, result.Error)
	}
	c := m.toDomain()
	return &c, nil
}

func (gdb *GORMDBWrapper) GetDefaultCurrency(ctx context.Context) (*dbt.Currency, error) {
	var m CurrencyModel
	result := gdb.db.WithContext(ctx).Where("is_default = ?", true).Order("name ASC").First(&m)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("default currency %w", dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get default currency: %w", result.Error)
	}
	c := m.toDomain()
	return &c, nil
}

func clearDefaultCurrency(tx *gorm.DB, exceptID string) error {
	result := tx.Model(&CurrencyModel{}).Where("is_default = ? AND id <> ?", true, exceptID).Update("is_default", false)
	if result.Error != nil {
		return fmt.Errorf("failed to clear default currency: %w", result.Error)
	}
	return nil
}

// UpsertCurrency inserts or replaces currency. A default currency takes the
// flag from every other row in the same transaction.
func (gdb *GORMDBWrapper) UpsertCurrency(ctx context.Context, currency *dbt.Currency) error {
	if currency.ID == "" {
		currency.ID = uuid.NewString()
	}
	m := currencyFromDomain(currency)
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.IsDefault {
			if err := clearDefaultCurrency(tx, m.ID); err != nil {
				return err
			}
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(currencyColumns),
		}).Create(&m)
		if result.Error != nil {
			return fmt.Errorf("failed to upsert currency %s: %w", m.ID, result.Error)
		}
		return nil
	})
}

func (gdb *GORMDBWrapper) UpdateCurrency(ctx context.Context, currency *dbt.Currency) error {
	m := currencyFromDomain(currency)
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.IsDefault {
			if err := clearDefaultCurrency(tx, m.ID); err != nil {
				return err
			}
		}
		result := tx.Model(&CurrencyModel{}).Where("id = ?", m.ID).Select(currencyColumns).Updates(&m)
		if result.Error != nil {
			return fmt.Errorf("failed to update currency with ID %s: %w", m.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("currency with ID %s %w for update", m.ID, dbt.ErrNotFound)
		}
		return nil
	})
}

func (gdb *GORMDBWrapper) DeleteCurrency(ctx context.Context, currency *dbt.Currency) error {
	result := gdb.db.WithContext(ctx).Where("id = ?", currency.ID).Delete(&CurrencyModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete currency with ID %s: %w", currency.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("currency with ID %s %w for delete", currency.ID, dbt.ErrNotFound)
	}
	return nil
}

func (gdb *GORMDBWrapper) SetDefaultCurrency(ctx context.Context, id string) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefaultCurrency(tx, id); err != nil {
			return err
		}
		result := tx.Model(&CurrencyModel{}).Where("id = ?", id).Update("is_default", true)
		if result.Error != nil {
			return fmt.Errorf("failed to set default currency %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("currency with ID %s %w", id, dbt.ErrNotFound)
		}
		return nil
	})
}

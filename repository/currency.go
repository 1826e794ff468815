package repository

import (
	"context"

	dbt "mileage/db/db"
	"mileage/mq/mq"
)

func (r *Repository) ListCurrencies(ctx context.Context) ([]dbt.Currency, error) {
	currencies, err := r.db.ListCurrencies(ctx)
	return currencies, logFailure("list currencies", "", err)
}

func (r *Repository) GetCurrency(ctx context.Context, id string) (*dbt.Currency, error) {
	return r.db.GetCurrency(ctx, id)
}

// GetDefaultCurrency returns nil without error when no currency is default.
func (r *Repository) GetDefaultCurrency(ctx context.Context) (*dbt.Currency, error) {
	return orNil(r.db.GetDefaultCurrency(ctx))
}

func (r *Repository) AddCurrency(ctx context.Context, currency *dbt.Currency) error {
	if err := r.db.UpsertCurrency(ctx, currency); err != nil {
		return logFailure("add currency", "", err)
	}
	r.publish(mq.TableCurrencies, mq.ActionCreate, "", currency.ID)
	return nil
}

func (r *Repository) UpdateCurrency(ctx context.Context, currency *dbt.Currency) error {
	if err := r.db.UpdateCurrency(ctx, currency); err != nil {
		return logFailure("update currency", "", err)
	}
	r.publish(mq.TableCurrencies, mq.ActionUpdate, "", currency.ID)
	return nil
}

func (r *Repository) DeleteCurrency(ctx context.Context, id string) error {
	if err := r.db.DeleteCurrency(ctx, &dbt.Currency{ID: id}); err != nil {
		return logFailure("delete currency", "", err)
	}
	r.publish(mq.TableCurrencies, mq.ActionDelete, "", id)
	return nil
}

// SetDefaultCurrency makes id the only default currency. An unknown id
// leaves the current default untouched.
func (r *Repository) SetDefaultCurrency(ctx context.Context, id string) error {
	if err := r.db.SetDefaultCurrency(ctx, id); err != nil {
		return logFailure("set default currency", "", err)
	}
	r.publish(mq.TableCurrencies, mq.ActionUpdate, "", id)
	return nil
}

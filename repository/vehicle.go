package repository

import (
	"context"

	dbt "mileage/db/db"
	"mileage/mq/mq"
)

func (r *Repository) ListVehicles(ctx context.Context, userID string) ([]dbt.Vehicle, error) {
	vehicles, err := r.db.ListVehicles(ctx, userID)
	return vehicles, logFailure("list vehicles", userID, err)
}

func (r *Repository) GetVehicle(ctx context.Context, id string, userID string) (*dbt.Vehicle, error) {
	return r.db.GetVehicle(ctx, id, userID)
}

func (r *Repository) GetVehicleByName(ctx context.Context, name string, userID string) (*dbt.Vehicle, error) {
	return r.db.GetVehicleByName(ctx, name, userID)
}

// AddVehicle inserts the vehicle, or replaces it when the id already exists.
func (r *Repository) AddVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	if err := r.db.UpsertVehicle(ctx, vehicle, userID); err != nil {
		return logFailure("add vehicle", userID, err)
	}
	r.publish(mq.TableVehicles, mq.ActionCreate, userID, vehicle.ID)
	return nil
}

func (r *Repository) UpdateVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	if err := r.db.UpdateVehicle(ctx, vehicle, userID); err != nil {
		return logFailure("update vehicle", userID, err)
	}
	r.publish(mq.TableVehicles, mq.ActionUpdate, userID, vehicle.ID)
	return nil
}

// DeleteVehicle fails with dbt.ErrVehicleHasTrips while any trip references it.
func (r *Repository) DeleteVehicle(ctx context.Context, id string, userID string) error {
	if err := r.db.DeleteVehicle(ctx, &dbt.Vehicle{ID: id}, userID); err != nil {
		return logFailure("delete vehicle", userID, err)
	}
	r.publish(mq.TableVehicles, mq.ActionDelete, userID, id)
	return nil
}

// DeleteVehicleWithTrips deletes the vehicle together with every trip that
// references it.
func (r *Repository) DeleteVehicleWithTrips(ctx context.Context, id string, userID string) error {
	if _, err := r.db.GetVehicle(ctx, id, userID); err != nil {
		return logFailure("delete vehicle", userID, err)
	}
	if err := r.db.DeleteTripsByVehicle(ctx, id, userID); err != nil {
		return logFailure("delete vehicle trips", userID, err)
	}
	r.publish(mq.TableTrips, mq.ActionDelete, userID, "")
	return r.DeleteVehicle(ctx, id, userID)
}

// ClearUserData deletes every trip and vehicle of the user. Currencies and
// fuel prices are shared and stay.
func (r *Repository) ClearUserData(ctx context.Context, userID string) error {
	if err := r.db.DeleteAllTrips(ctx, userID); err != nil {
		return logFailure("clear trips", userID, err)
	}
	r.publish(mq.TableTrips, mq.ActionDelete, userID, "")
	if err := r.db.DeleteAllVehicles(ctx, userID); err != nil {
		return logFailure("clear vehicles", userID, err)
	}
	r.publish(mq.TableVehicles, mq.ActionDelete, userID, "")
	return nil
}

func (r *Repository) CanDeleteVehicle(ctx context.Context, id string, userID string) (bool, error) {
	has, err := r.db.HasTrips(ctx, id, userID)
	if err != nil {
		return false, logFailure("check vehicle trips", userID, err)
	}
	return !has, nil
}

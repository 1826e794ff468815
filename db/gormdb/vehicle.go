package gormdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbt "mileage/db/db"
)

var vehicleColumns = []string{"name", "make", "model", "year", "fuel_type", "registration_number", "updated_at"}

// ListVehicles returns the vehicles of userID ordered by name.
func (gdb *GORMDBWrapper) ListVehicles(ctx context.Context, userID string) ([]dbt.Vehicle, error) {
	var models []VehicleModel
	result := gdb.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list vehicles for user %s: %w", userID, result.Error)
	}
	vehicles := make([]dbt.Vehicle, 0, len(models))
	for _, m := range models {
		vehicles = append(vehicles, m.toDomain())
	}
	return vehicles, nil
}

func (gdb *GORMDBWrapper) GetVehicle(ctx context.Context, id string, userID string) (*dbt.Vehicle, error) {
	var m VehicleModel
	result := gdb.db.WithContext(ctx).First(&m, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("vehicle with ID %s %w", id, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vehicle %s: %w", id, result.Error)
	}
	v := m.toDomain()
	return &v, nil
}

// GetVehicleByName returns the oldest vehicle of userID with exactly that name.
func (gdb *GORMDBWrapper) GetVehicleByName(ctx context.Context, name string, userID string) (*dbt.Vehicle, error) {
	var m VehicleModel
	result := gdb.db.WithContext(ctx).Where("name = ? AND user_id = ?", name, userID).Order("created_at ASC").First(&m)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("vehicle named %q %w", name, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vehicle named %q: %w", name, result.Error)
	}
	v := m.toDomain()
	return &v, nil
}

// HasTrips reports whether any trip of userID references vehicleID.
func (gdb *GORMDBWrapper) HasTrips(ctx context.Context, vehicleID string, userID string) (bool, error) {
	return hasTrips(gdb.db.WithContext(ctx), vehicleID, userID)
}

func hasTrips(db *gorm.DB, vehicleID string, userID string) (bool, error) {
	var found int
	result := db.Model(&TripModel{}).Select("1").Where("vehicle_id = ? AND user_id = ?", vehicleID, userID).Limit(1).Scan(&found)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check trips of vehicle %s: %w", vehicleID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpsertVehicle inserts vehicle or replaces the stored row with the same id.
// An empty id is assigned a new one.
func (gdb *GORMDBWrapper) UpsertVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	m := vehicleFromDomain(vehicle, userID)
	m.UpdatedAt = nowUTC()

	result := gdb.db.WithContext(ctx).Clauses(upsertOwned("vehicles", userID, vehicleColumns)).Create(&m)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert vehicle %s: %w", vehicle.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("vehicle with ID %s belongs to another user: %w", vehicle.ID, dbt.ErrNotFound)
	}
	return nil
}

func (gdb *GORMDBWrapper) UpdateVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	m := vehicleFromDomain(vehicle, userID)
	m.UpdatedAt = nowUTC()
	result := gdb.db.WithContext(ctx).Model(&VehicleModel{}).
		Where("id = ? AND user_id = ?", vehicle.ID, userID).
		Select(vehicleColumns).
		Updates(&m)
	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle with ID %s: %w", vehicle.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("vehicle with ID %s %w for update", vehicle.ID, dbt.ErrNotFound)
	}
	return nil
}

// DeleteVehicle removes the vehicle unless a trip still references it.
func (gdb *GORMDBWrapper) DeleteVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		busy, err := hasTrips(tx, vehicle.ID, userID)
		if err != nil {
			return err
		}
		if busy {
			return fmt.Errorf("cannot delete vehicle %s: %w", vehicle.ID, dbt.ErrVehicleHasTrips)
		}
		result := tx.Where("id = ? AND user_id = ?", vehicle.ID, userID).Delete(&VehicleModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete vehicle with ID %s: %w", vehicle.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("vehicle with ID %s %w for delete", vehicle.ID, dbt.ErrNotFound)
		}
		return nil
	})
}

func (gdb *GORMDBWrapper) DeleteAllVehicles(ctx context.Context, userID string) error {
	result := gdb.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&VehicleModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicles of user %s: %w", userID, result.Error)
	}
	return nil
}

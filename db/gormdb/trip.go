package gormdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbt "mileage/db/db"
)

// tripRow carries the vehicle name as currently stored on the vehicle.
type tripRow struct {
	TripModel          `gorm:"embedded"`
	CurrentVehicleName *string
}

func (r tripRow) toDomain() dbt.Trip {
	t := r.TripModel.toDomain()
	if r.CurrentVehicleName != nil {
		t.VehicleName = *r.CurrentVehicleName
	}
	return t
}

// ListTrips returns the trips of userID, most recently updated first. The
// vehicle name comes from the vehicles table when the vehicle still exists.
func (gdb *GORMDBWrapper) ListTrips(ctx context.Context, userID string) ([]dbt.Trip, error) {
	var rows []tripRow
	result := gdb.db.WithContext(ctx).
		Table("trips").
		Select("trips.*, vehicles.name AS current_vehicle_name").
		Joins("LEFT JOIN vehicles ON vehicles.id = trips.vehicle_id AND vehicles.user_id = trips.user_id").
		Where("trips.user_id = ?", userID).
		Order("trips.updated_at DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list trips for user %s: %w", userID, result.Error)
	}
	trips := make([]dbt.Trip, 0, len(rows))
	for _, r := range rows {
		trips = append(trips, r.toDomain())
	}
	return trips, nil
}

func (gdb *GORMDBWrapper) GetTrip(ctx context.Context, id string, userID string) (*dbt.Trip, error) {
	var m TripModel
	result := gdb.db.WithContext(ctx).First(&m, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, fmt.Errorf("trip with ID %s %w", id, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trip %s: %w", id, result.Error)
	}
	t := m.toDomain()
	return &t, nil
}

// UpsertTrip inserts trip or replaces the stored row with the same id while
// keeping its creation time. An empty id is assigned a new one.
func (gdb *GORMDBWrapper) UpsertTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	m := tripFromDomain(trip, userID)
	m.UpdatedAt = nowUTC()

	result := gdb.db.WithContext(ctx).Clauses(upsertOwned("trips", userID, tripColumns)).Create(&m)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert trip %s: %w", trip.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip with ID %s belongs to another user: %w", trip.ID, dbt.ErrNotFound)
	}
	// the conflict update keeps the stored creation time, read it back
	var stored TripModel
	err := gdb.db.WithContext(ctx).Select("created_at").
		First(&stored, "id = ? AND user_id = ?", trip.ID, userID).Error
	if err != nil {
		return fmt.Errorf("failed to reload trip %s: %w", trip.ID, err)
	}
	trip.UpdatedAt = m.UpdatedAt
	trip.CreatedAt = stored.CreatedAt
	return nil
}

func (gdb *GORMDBWrapper) UpdateTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	m := tripFromDomain(trip, userID)
	m.UpdatedAt = nowUTC()
	result := gdb.db.WithContext(ctx).Model(&TripModel{}).
		Where("id = ? AND user_id = ?", trip.ID, userID).
		Select(tripColumns).
		Updates(&m)
	if result.Error != nil {
		return fmt.Errorf("failed to update trip with ID %s: %w", trip.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip with ID %s %w for update", trip.ID, dbt.ErrNotFound)
	}
	trip.UpdatedAt = m.UpdatedAt
	return nil
}

func (gdb *GORMDBWrapper) DeleteTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	result := gdb.db.WithContext(ctx).Where("id = ? AND user_id = ?", trip.ID, userID).Delete(&TripModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete trip with ID %s: %w", trip.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip with ID %s %w for delete", trip.ID, dbt.ErrNotFound)
	}
	return nil
}

func (gdb *GORMDBWrapper) DeleteTripsByVehicle(ctx context.Context, vehicleID string, userID string) error {
	result := gdb.db.WithContext(ctx).Where("vehicle_id = ? AND user_id = ?", vehicleID, userID).Delete(&TripModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete trips of vehicle %s: %w", vehicleID, result.Error)
	}
	return nil
}

func (gdb *GORMDBWrapper) DeleteAllTrips(ctx context.Context, userID string) error {
	result := gdb.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&TripModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete trips of user %s: %w", userID, result.Error)
	}
	return nil
}

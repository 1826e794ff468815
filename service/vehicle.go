package service

import (
	"context"

	"mileage/auth"
	dbt "mileage/db/db"
	"mileage/mileage"
)

// SaveVehicle validates the profile and adds it, or replaces the stored one
// when it already has an id.
func (s *Service) SaveVehicle(ctx context.Context, id *auth.Identity, vehicle *dbt.Vehicle) error {
	userID, err := userOf(id)
	if err != nil {
		return err
	}
	if err := mileage.ValidateVehicle(vehicle); err != nil {
		return err
	}
	if vehicle.ID == "" {
		return s.repo.AddVehicle(ctx, vehicle, userID)
	}
	return s.repo.UpdateVehicle(ctx, vehicle, userID)
}

// DeleteVehicle reports false, deleting nothing, while trips reference the
// vehicle.
func (s *Service) DeleteVehicle(ctx context.Context, id *auth.Identity, vehicleID string) (bool, error) {
	userID, err := userOf(id)
	if err != nil {
		return false, err
	}
	ok, err := s.repo.CanDeleteVehicle(ctx, vehicleID, userID)
	if err != nil || !ok {
		return false, err
	}
	if err := s.repo.DeleteVehicle(ctx, vehicleID, userID); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteVehicleWithTrips deletes the vehicle and all of its trips.
func (s *Service) DeleteVehicleWithTrips(ctx context.Context, id *auth.Identity, vehicleID string) error {
	userID, err := userOf(id)
	if err != nil {
		return err
	}
	return s.repo.DeleteVehicleWithTrips(ctx, vehicleID, userID)
}

// ClearData deletes every trip and vehicle of the user.
func (s *Service) ClearData(ctx context.Context, id *auth.Identity) error {
	userID, err := userOf(id)
	if err != nil {
		return err
	}
	return s.repo.ClearUserData(ctx, userID)
}

// Package service holds the trip lifecycle and the user facing operations
// built on the repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mileage/auth"
	dbt "mileage/db/db"
	"mileage/mileage"
	"mileage/repository"
)

// ErrNoUser short-circuits every mutation attempted without a signed in user.
var ErrNoUser = errors.New("no authenticated user")

type Service struct {
	repo *repository.Repository
	// background backups started by saves
	backups sync.WaitGroup
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Repository() *repository.Repository {
	return s.repo
}

// Wait blocks until every background backup has finished.
func (s *Service) Wait() {
	s.backups.Wait()
}

func userOf(id *auth.Identity) (string, error) {
	if id == nil || id.ID == "" {
		return "", ErrNoUser
	}
	return id.ID, nil
}

// vehicleFor loads the selected vehicle, reporting an unknown one as a
// missing selection.
func (s *Service) vehicleFor(ctx context.Context, vehicleID string, userID string) (*dbt.Vehicle, error) {
	if vehicleID == "" {
		return nil, nil
	}
	v, err := s.repo.GetVehicle(ctx, vehicleID, userID)
	if errors.Is(err, dbt.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle %s: %w", vehicleID, err)
	}
	return v, nil
}

// priceFor resolves the unit price and currency for a vehicle. Vehicles
// without a fuel type are never costed.
func (s *Service) priceFor(ctx context.Context, vehicle *dbt.Vehicle, manual *float64, selected string) (*mileage.Price, *string, error) {
	if !vehicle.FuelType.Valid() {
		if selected != "" {
			return nil, dbt.String(selected), nil
		}
		return nil, nil, nil
	}
	var recorded *dbt.FuelPrice
	if manual == nil || *manual <= 0 {
		p, err := s.repo.GetLatestFuelPrice(ctx, vehicle.FuelType)
		if err != nil {
			return nil, nil, err
		}
		recorded = p
	}
	price := mileage.ResolvePrice(manual, recorded)
	def, err := s.repo.GetDefaultCurrency(ctx)
	if err != nil {
		return nil, nil, err
	}
	return price, mileage.ResolveCurrency(selected, price, def), nil
}

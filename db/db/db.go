package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is wrapped by every lookup, update and delete that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrVehicleHasTrips is returned when a vehicle still has trips referencing it.
	ErrVehicleHasTrips = errors.New("vehicle has trips")
)

// Vehicle and trip access is always scoped by the owning user id.
type VehicleDBWrapper interface {
	// Read
	ListVehicles(ctx context.Context, userID string) ([]Vehicle, error)
	GetVehicle(ctx context.Context, id string, userID string) (*Vehicle, error)
	GetVehicleByName(ctx context.Context, name string, userID string) (*Vehicle, error)
	HasTrips(ctx context.Context, vehicleID string, userID string) (bool, error)
	// Write
	UpsertVehicle(ctx context.Context, vehicle *Vehicle, userID string) error
	UpdateVehicle(ctx context.Context, vehicle *Vehicle, userID string) error
	DeleteVehicle(ctx context.Context, vehicle *Vehicle, userID string) error
	DeleteAllVehicles(ctx context.Context, userID string) error
}

type TripDBWrapper interface {
	// Read
	ListTrips(ctx context.Context, userID string) ([]Trip, error)
	GetTrip(ctx context.Context, id string, userID string) (*Trip, error)
	// Write
	UpsertTrip(ctx context.Context, trip *Trip, userID string) error
	UpdateTrip(ctx context.Context, trip *Trip, userID string) error
	DeleteTrip(ctx context.Context, trip *Trip, userID string) error
	DeleteTripsByVehicle(ctx context.Context, vehicleID string, userID string) error
	DeleteAllTrips(ctx context.Context, userID string) error
}

type CurrencyDBWrapper interface {
	// Read
	ListCurrencies(ctx context.Context) ([]Currency, error)
	GetCurrency(ctx context.Context, id string) (*Currency, error)
	GetDefaultCurrency(ctx context.Context) (*Currency, error)
	// Write
	UpsertCurrency(ctx context.Context, currency *Currency) error
	UpdateCurrency(ctx context.Context, currency *Currency) error
	DeleteCurrency(ctx context.Context, currency *Currency) error
	// SetDefaultCurrency clears every default flag and sets the one for id
	// in a single transaction.
	SetDefaultCurrency(ctx context.Context, id string) error
}

type FuelPriceDBWrapper interface {
	// Read
	ListActiveFuelPrices(ctx context.Context) ([]FuelPrice, error)
	GetFuelPrice(ctx context.Context, id string) (*FuelPrice, error)
	GetLatestFuelPrice(ctx context.Context, fuelType FuelType) (*FuelPrice, error)
	GetLatestFuelPriceByCurrency(ctx context.Context, fuelType FuelType, currencyID string) (*FuelPrice, error)
	// Write
	// AddFuelPrice deactivates every price of the same fuel type and inserts
	// price as the active one in a single transaction.
	AddFuelPrice(ctx context.Context, price *FuelPrice) error
	UpdateFuelPrice(ctx context.Context, price *FuelPrice) error
	DeleteFuelPrice(ctx context.Context, price *FuelPrice) error
}

// DBWrapper is the full data access layer.
type DBWrapper interface {
	VehicleDBWrapper
	TripDBWrapper
	CurrencyDBWrapper
	FuelPriceDBWrapper
}

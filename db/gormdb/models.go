package gormdb

import (
	"time"

	dbt "mileage/db/db"
)

type VehicleModel struct {
	ID                 string  `gorm:"primaryKey"`
	UserID             string  `gorm:"not null;index"`
	Name               string  `gorm:"not null"`
	Make               string  `gorm:"not null;default:''"`
	Model              string  `gorm:"not null;default:''"`
	Year               string  `gorm:"not null;default:''"`
	FuelType           *string // NULL for vehicles restored from the legacy car list
	RegistrationNumber string  `gorm:"not null;default:''"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for VehicleModel.
func (VehicleModel) TableName() string {
	return "vehicles"
}

func vehicleFromDomain(v *dbt.Vehicle, userID string) VehicleModel {
	m := VehicleModel{
		ID:                 v.ID,
		UserID:             userID,
		Name:               v.Name,
		Make:               v.Make,
		Model:              v.Model,
		Year:               v.Year,
		RegistrationNumber: v.RegistrationNumber,
	}
	if v.FuelType != "" {
		ft := string(v.FuelType)
		m.FuelType = &ft
	}
	return m
}

func (m VehicleModel) toDomain() dbt.Vehicle {
	v := dbt.Vehicle{
		ID:                 m.ID,
		Name:               m.Name,
		Make:               m.Make,
		Model:              m.Model,
		Year:               m.Year,
		RegistrationNumber: m.RegistrationNumber,
	}
	if m.FuelType != nil {
		v.FuelType = dbt.FuelType(*m.FuelType)
	}
	return v
}

type TripModel struct {
	ID               string `gorm:"primaryKey"`
	UserID           string `gorm:"not null;index"`
	VehicleID        string `gorm:"not null"`
	VehicleName      string `gorm:"not null"`
	StartMileage     *float64
	EndMileage       *float64
	FuelFilled       *float64
	TripDistance     *float64
	FuelEfficiency   *float64
	FuelCost         *float64
	FuelPricePerUnit *float64
	CurrencyID       *string
	Status           string `gorm:"not null;default:DRAFT"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for TripModel.
func (TripModel) TableName() string {
	return "trips"
}

// tripColumns are written by an upsert; created_at and the owner never change.
var tripColumns = []string{
	"vehicle_id", "vehicle_name", "start_mileage", "end_mileage", "fuel_filled",
	"trip_distance", "fuel_efficiency", "fuel_cost", "fuel_price_per_unit",
	"currency_id", "status", "updated_at",
}

func tripFromDomain(t *dbt.Trip, userID string) TripModel {
	return TripModel{
		ID:               t.ID,
		UserID:           userID,
		VehicleID:        t.VehicleID,
		VehicleName:      t.VehicleName,
		StartMileage:     t.StartMileage,
		EndMileage:       t.EndMileage,
		FuelFilled:       t.FuelFilled,
		TripDistance:     t.TripDistance,
		FuelEfficiency:   t.FuelEfficiency,
		FuelCost:         t.FuelCost,
		FuelPricePerUnit: t.FuelPricePerUnit,
		CurrencyID:       t.CurrencyID,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt.UTC(),
		UpdatedAt:        t.UpdatedAt.UTC(),
	}
}

func (m TripModel) toDomain() dbt.Trip {
	return dbt.Trip{
		ID:               m.ID,
		VehicleID:        m.VehicleID,
		VehicleName:      m.VehicleName,
		StartMileage:     m.StartMileage,
		EndMileage:       m.EndMileage,
		FuelFilled:       m.FuelFilled,
		TripDistance:     m.TripDistance,
		FuelEfficiency:   m.FuelEfficiency,
		FuelCost:         m.FuelCost,
		FuelPricePerUnit: m.FuelPricePerUnit,
		CurrencyID:       m.CurrencyID,
		Status:           dbt.TripStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type CurrencyModel struct {
	ID        string `gorm:"primaryKey"`
	Code      string `gorm:"not null"`
	Name      string `gorm:"not null"`
	Symbol    string `gorm:"not null"`
	IsDefault bool   `gorm:"not null"`
}

// TableName returns the table name for CurrencyModel.
func (CurrencyModel) TableName() string {
	return "currencies"
}

func currencyFromDomain(c *dbt.Currency) CurrencyModel {
	return CurrencyModel{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Symbol:    c.Symbol,
		IsDefault: c.IsDefault,
	}
}

func (m CurrencyModel) toDomain() dbt.Currency {
	return dbt.Currency{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Symbol:    m.Symbol,
		IsDefault: m.IsDefault,
	}
}

type FuelPriceModel struct {
	ID           string    `gorm:"primaryKey"`
	FuelType     string    `gorm:"not null"`
	PricePerUnit float64   `gorm:"not null"`
	CurrencyID   string    `gorm:"not null"`
	LastUpdated  time.Time `gorm:"not null"`
	IsActive     bool      `gorm:"not null"`
}

// TableName returns the table name for FuelPriceModel.
func (FuelPriceModel) TableName() string {
	return "fuel_prices"
}

func fuelPriceFromDomain(p *dbt.FuelPrice) FuelPriceModel {
	return FuelPriceModel{
		ID:           p.ID,
		FuelType:     string(p.FuelType),
		PricePerUnit: p.PricePerUnit,
		CurrencyID:   p.CurrencyID,
		LastUpdated:  p.LastUpdated.UTC(),
		IsActive:     p.IsActive,
	}
}

func (m FuelPriceModel) toDomain() dbt.FuelPrice {
	return dbt.FuelPrice{
		ID:           m.ID,
		FuelType:     dbt.FuelType(m.FuelType),
		PricePerUnit: m.PricePerUnit,
		CurrencyID:   m.CurrencyID,
		LastUpdated:  m.LastUpdated,
		IsActive:     m.IsActive,
	}
}

package db

import (
	"fmt"
	"slices"
	"time"
)

// LegacyUserID owns rows that predate per-user scoping.
const LegacyUserID = "legacy"

type FuelType string

const (
	FuelTypePetrol FuelType = "PETROL"
	FuelTypeDiesel FuelType = "DIESEL"
	FuelTypeCNG    FuelType = "CNG"
)

// FuelTypes lists every supported fuel type in display order.
var FuelTypes = []FuelType{FuelTypePetrol, FuelTypeDiesel, FuelTypeCNG}

func (f FuelType) Valid() bool {
	return slices.Contains(FuelTypes, f)
}

// DisplayName returns the human readable name of the fuel type.
func (f FuelType) DisplayName() string {
	switch f {
	case FuelTypePetrol:
		return "Petrol"
	case FuelTypeDiesel:
		return "Diesel"
	case FuelTypeCNG:
		return "CNG"
	}
	return ""
}

// Unit is the unit fuel of this type is sold in.
func (f FuelType) Unit() string {
	if f == FuelTypeCNG {
		return "KG"
	}
	return "Ltr"
}

// ParseFuelType accepts the stored name of a fuel type, case-sensitive.
func ParseFuelType(s string) (FuelType, error) {
	f := FuelType(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown fuel type %q", s)
	}
	return f, nil
}

type TripStatus string

const (
	TripStatusDraft     TripStatus = "DRAFT"
	TripStatusCompleted TripStatus = "COMPLETED"
)

type Vehicle struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Make               string   `json:"make"`
	Model              string   `json:"model"`
	Year               string   `json:"year"`
	FuelType           FuelType `json:"fuelType,omitempty"`
	RegistrationNumber string   `json:"registrationNumber"`
}

// Trip is one fill-up-to-fill-up driving record. TripDistance, FuelEfficiency
// and FuelCost are only set when Status is TripStatusCompleted.
type Trip struct {
	ID               string     `json:"id"`
	VehicleID        string     `json:"vehicleId"`
	VehicleName      string     `json:"vehicleName"`
	StartMileage     *float64   `json:"startMileage"`
	EndMileage       *float64   `json:"endMileage"`
	FuelFilled       *float64   `json:"fuelFilled"`
	TripDistance     *float64   `json:"tripDistance"`
	FuelEfficiency   *float64   `json:"fuelEfficiency"`
	FuelCost         *float64   `json:"fuelCost"`
	FuelPricePerUnit *float64   `json:"fuelPricePerUnit"`
	CurrencyID       *string    `json:"currencyId"`
	Status           TripStatus `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type Currency struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	IsDefault bool   `json:"isDefault"`
}

type FuelPrice struct {
	ID           string    `json:"id"`
	FuelType     FuelType  `json:"fuelType"`
	PricePerUnit float64   `json:"pricePerUnit"`
	CurrencyID   string    `json:"currencyId"`
	LastUpdated  time.Time `json:"lastUpdated"`
	IsActive     bool      `json:"isActive"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

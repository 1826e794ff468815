package mileage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"mileage/db/db"
)

const (
	MinVehicleNameLength = 2
	MaxVehicleNameLength = 50
)

// ParseOptionalFloat parses a form number. Blank input is nil, not an error.
// NaN and infinities are refused.
func ParseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to convert '%s' to float: %w", s, err)
	}
	if !finite(v) {
		return nil, fmt.Errorf("failed to convert '%s' to float: not a finite number", s)
	}
	return &v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrNil(v *float64) bool {
	return v == nil || finite(*v)
}

// ValidateCalculate applies the strict rules of the calculate action and
// returns the checked start, end and fuel values.
func ValidateCalculate(vehicle *db.Vehicle, r Readings) (start, end, fuel float64, err error) {
	if vehicle == nil {
		return 0, 0, 0, fieldError(FieldVehicle, "Please select a vehicle profile.")
	}
	if r.StartMileage == nil {
		return 0, 0, 0, fieldError(FieldStartMileage, "Start and End mileage must be valid numbers.")
	}
	if r.EndMileage == nil {
		return 0, 0, 0, fieldError(FieldEndMileage, "Start and End mileage must be valid numbers.")
	}
	start, end = *r.StartMileage, *r.EndMileage
	if !finite(start) {
		return 0, 0, 0, fieldError(FieldStartMileage, "Start and End mileage must be valid numbers.")
	}
	if !finite(end) {
		return 0, 0, 0, fieldError(FieldEndMileage, "Start and End mileage must be valid numbers.")
	}
	if start < 0 {
		return 0, 0, 0, fieldError(FieldStartMileage, "Mileage cannot be negative.")
	}
	if end < 0 {
		return 0, 0, 0, fieldError(FieldEndMileage, "Mileage cannot be negative.")
	}
	if end <= start {
		return 0, 0, 0, fieldError(FieldEndMileage, "End mileage must be greater than start mileage.")
	}
	if r.FuelFilled == nil || !finite(*r.FuelFilled) || *r.FuelFilled <= 0 {
		return 0, 0, 0, fieldError(FieldFuelFilled, "Fuel filled must be a positive number.")
	}
	if !finiteOrNil(r.ManualPrice) {
		return 0, 0, 0, fieldError(FieldFuelPrice, "Fuel price must be a valid number.")
	}
	return start, end, *r.FuelFilled, nil
}

// ValidateDraft applies the lenient rules of save-as-you-go. Missing values
// are fine, only a reversed odometer is refused.
func ValidateDraft(vehicle *db.Vehicle, r Readings) error {
	if vehicle == nil {
		return fieldError(FieldVehicle, "Please select a vehicle profile.")
	}
	switch {
	case !finiteOrNil(r.StartMileage):
		return fieldError(FieldStartMileage, "Start and End mileage must be valid numbers.")
	case !finiteOrNil(r.EndMileage):
		return fieldError(FieldEndMileage, "Start and End mileage must be valid numbers.")
	case !finiteOrNil(r.FuelFilled):
		return fieldError(FieldFuelFilled, "Fuel filled must be a positive number.")
	case !finiteOrNil(r.ManualPrice):
		return fieldError(FieldFuelPrice, "Fuel price must be a valid number.")
	}
	if r.StartMileage != nil && r.EndMileage != nil && *r.EndMileage < *r.StartMileage {
		return fieldError(FieldEndMileage, "End mileage cannot be less than start mileage.")
	}
	return nil
}

// ValidateVehicle trims the profile in place and checks name and fuel type.
func ValidateVehicle(v *db.Vehicle) error {
	if err := ValidateLegacyVehicle(v); err != nil {
		return err
	}
	if !v.FuelType.Valid() {
		return fieldError(FieldFuelType, "Please select a fuel type")
	}
	return nil
}

// ValidateLegacyVehicle is ValidateVehicle without the fuel type check, for
// vehicles carried over from the flat car list.
func ValidateLegacyVehicle(v *db.Vehicle) error {
	v.Name = strings.TrimSpace(v.Name)
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.Year = strings.TrimSpace(v.Year)
	v.RegistrationNumber = strings.TrimSpace(v.RegistrationNumber)

	n := utf8.RuneCountInString(v.Name)
	switch {
	case n == 0:
		return fieldError(FieldName, "Vehicle name cannot be empty")
	case n < MinVehicleNameLength:
		return fieldError(FieldName, "Vehicle name must be at least 2 characters")
	case n > MaxVehicleNameLength:
		return fieldError(FieldName, "Vehicle name cannot exceed 50 characters")
	}
	return nil
}

package mileage

import (
	"mileage/db/db"
)

// Field names the trip or vehicle form input a validation message belongs to.
type Field string

const (
	FieldVehicle      Field = "vehicle"
	FieldStartMileage Field = "startMileage"
	FieldEndMileage   Field = "endMileage"
	FieldFuelFilled   Field = "fuelFilled"
	FieldFuelPrice    Field = "fuelPrice"
	FieldName         Field = "name"
	FieldFuelType     Field = "fuelType"
)

// FieldError is a user input problem tied to a single form field.
type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Message
}

func fieldError(field Field, msg string) *FieldError {
	return &FieldError{Field: field, Message: msg}
}

// Readings are the raw user entered numbers of one trip. Nil means not entered.
type Readings struct {
	StartMileage *float64 `json:"startMileage"`
	EndMileage   *float64 `json:"endMileage"`
	FuelFilled   *float64 `json:"fuelFilled"`
	// ManualPrice overrides the recorded fuel price when set and positive.
	ManualPrice *float64 `json:"manualPrice,omitempty"`
}

// Metrics is the result of a calculation. Cost is nil when no price is known.
type Metrics struct {
	Distance   float64  `json:"tripDistance"`
	Efficiency float64  `json:"fuelEfficiency"`
	Cost       *float64 `json:"fuelCost"`
}

// Price is the unit price a trip was costed with.
type Price struct {
	PerUnit float64
	// CurrencyID is the currency of the recorded price, empty for a manual price.
	CurrencyID string
	Manual     bool
}

// PriceFromRecord turns an active fuel price into a Price, nil in, nil out.
func PriceFromRecord(fp *db.FuelPrice) *Price {
	if fp == nil {
		return nil
	}
	return &Price{PerUnit: fp.PricePerUnit, CurrencyID: fp.CurrencyID}
}

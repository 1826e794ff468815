package mileage

import (
	"mileage/db/db"
)

// IsComplete reports whether the readings are enough for a COMPLETED trip.
func IsComplete(r Readings) bool {
	return r.StartMileage != nil && r.EndMileage != nil && r.FuelFilled != nil &&
		*r.FuelFilled > 0 && *r.EndMileage >= *r.StartMileage
}

// Derive computes distance, efficiency and, when price is known, cost.
// Callers must have checked fuel > 0.
func Derive(start, end, fuel float64, price *Price) Metrics {
	distance := end - start
	m := Metrics{
		Distance:   distance,
		Efficiency: distance / fuel,
	}
	if price != nil {
		m.Cost = db.Float(fuel * price.PerUnit)
	}
	return m
}

// ResolvePrice picks the unit price for a trip: the manual price if positive,
// otherwise the latest active recorded price. Nil when neither exists.
func ResolvePrice(manual *float64, recorded *db.FuelPrice) *Price {
	if manual != nil && *manual > 0 {
		return &Price{PerUnit: *manual, Manual: true}
	}
	return PriceFromRecord(recorded)
}

// ResolveCurrency picks the currency attached to a trip: the selected one,
// else the currency of the recorded price, else the default currency.
func ResolveCurrency(selected string, price *Price, defaultCurrency *db.Currency) *string {
	if selected != "" {
		return db.String(selected)
	}
	if price != nil && price.CurrencyID != "" {
		return db.String(price.CurrencyID)
	}
	if defaultCurrency != nil {
		return db.String(defaultCurrency.ID)
	}
	return nil
}

// Normalize fills status, derived fields and the price snapshot of trip from
// its readings. Derived fields are cleared unless the trip is complete.
func Normalize(trip *db.Trip, price *Price, currencyID *string) {
	r := Readings{StartMileage: trip.StartMileage, EndMileage: trip.EndMileage, FuelFilled: trip.FuelFilled}
	trip.FuelPricePerUnit = nil
	if price != nil {
		trip.FuelPricePerUnit = db.Float(price.PerUnit)
	}
	trip.CurrencyID = nil
	if currencyID != nil {
		trip.CurrencyID = db.String(*currencyID)
	}

	if !IsComplete(r) {
		trip.Status = db.TripStatusDraft
		trip.TripDistance = nil
		trip.FuelEfficiency = nil
		trip.FuelCost = nil
		return
	}

	m := Derive(*r.StartMileage, *r.EndMileage, *r.FuelFilled, price)
	trip.Status = db.TripStatusCompleted
	trip.TripDistance = db.Float(m.Distance)
	trip.FuelEfficiency = db.Float(m.Efficiency)
	trip.FuelCost = m.Cost
}

package gormdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dbt "mileage/db/db"
)

func TestVehicleMapping(t *testing.T) {
	tests := []dbt.Vehicle{
		{ID: "v1", Name: "Civic", Make: "Honda", Model: "FK8", Year: "2019", FuelType: dbt.FuelTypePetrol, RegistrationNumber: "KA-01"},
		{ID: "v2", Name: "Legacy car"},
	}
	for _, v := range tests {
		m := vehicleFromDomain(&v, "u1")
		assert.Equal(t, "u1", m.UserID)
		assert.Equal(t, v, m.toDomain())
	}

	assert.Nil(t, vehicleFromDomain(&tests[1], "u1").FuelType)
}

func TestTripMapping(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	completed := dbt.Trip{
		ID:               "t1",
		VehicleID:        "v1",
		VehicleName:      "Civic",
		StartMileage:     dbt.Float(1000),
		EndMileage:       dbt.Float(1350),
		FuelFilled:       dbt.Float(25),
		TripDistance:     dbt.Float(350),
		FuelEfficiency:   dbt.Float(14),
		FuelCost:         dbt.Float(37.5),
		FuelPricePerUnit: dbt.Float(1.5),
		CurrencyID:       dbt.String("usd"),
		Status:           dbt.TripStatusCompleted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	draft := dbt.Trip{ID: "t2", VehicleID: "v1", VehicleName: "Civic", StartMileage: dbt.Float(5), Status: dbt.TripStatusDraft, CreatedAt: now, UpdatedAt: now}

	for _, trip := range []dbt.Trip{completed, draft} {
		assert.Equal(t, trip, tripFromDomain(&trip, "u1").toDomain())
	}

	// the joined vehicle name wins over the stored copy
	row := tripRow{TripModel: tripFromDomain(&completed, "u1"), CurrentVehicleName: dbt.String("Civic R")}
	assert.Equal(t, "Civic R", row.toDomain().VehicleName)
	row.CurrentVehicleName = nil
	assert.Equal(t, "Civic", row.toDomain().VehicleName)
}

func TestCurrencyAndFuelPriceMapping(t *testing.T) {
	c := dbt.Currency{ID: "usd", Code: "USD", Name: "US Dollar", Symbol: "$", IsDefault: true}
	assert.Equal(t, c, currencyFromDomain(&c).toDomain())

	p := dbt.FuelPrice{ID: "p1", FuelType: dbt.FuelTypeCNG, PricePerUnit: 0.9, CurrencyID: "inr", LastUpdated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true}
	assert.Equal(t, p, fuelPriceFromDomain(&p).toDomain())
}

package mileage

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mileage/db/db"
)

func f(v float64) *float64 { return &v }

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name     string
		readings Readings
		want     bool
	}{
		{"all present", Readings{StartMileage: f(1000), EndMileage: f(1350), FuelFilled: f(25)}, true},
		{"same odometer", Readings{StartMileage: f(1000), EndMileage: f(1000), FuelFilled: f(1)}, true},
		{"no fuel", Readings{StartMileage: f(1000), EndMileage: f(1350)}, false},
		{"zero fuel", Readings{StartMileage: f(1000), EndMileage: f(1350), FuelFilled: f(0)}, false},
		{"no end", Readings{StartMileage: f(1000), FuelFilled: f(10)}, false},
		{"reversed", Readings{StartMileage: f(1350), EndMileage: f(1000), FuelFilled: f(10)}, false},
		{"empty", Readings{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplete(tt.readings))
		})
	}
}

func TestDerive(t *testing.T) {
	m := Derive(1000, 1350, 25, nil)
	assert.Equal(t, 350.0, m.Distance)
	assert.Equal(t, 14.0, m.Efficiency)
	assert.Nil(t, m.Cost)

	m = Derive(0, 123.4, 7.1, &Price{PerUnit: 1.5})
	assert.Equal(t, 123.4-0, m.Distance)
	assert.Equal(t, 123.4/7.1, m.Efficiency)
	require.NotNil(t, m.Cost)
	assert.Equal(t, 7.1*1.5, *m.Cost)
}

func TestResolvePrice(t *testing.T) {
	recorded := &db.FuelPrice{ID: "p1", FuelType: db.FuelTypePetrol, PricePerUnit: 1.9, CurrencyID: "eur", LastUpdated: time.Now(), IsActive: true}

	p := ResolvePrice(f(2.5), recorded)
	require.NotNil(t, p)
	assert.True(t, p.Manual)
	assert.Equal(t, 2.5, p.PerUnit)
	assert.Empty(t, p.CurrencyID)

	p = ResolvePrice(f(0), recorded)
	require.NotNil(t, p)
	assert.False(t, p.Manual)
	assert.Equal(t, 1.9, p.PerUnit)
	assert.Equal(t, "eur", p.CurrencyID)

	p = ResolvePrice(f(-1), nil)
	assert.Nil(t, p)
	assert.Nil(t, ResolvePrice(nil, nil))
}

func TestResolveCurrency(t *testing.T) {
	def := &db.Currency{ID: "usd", Code: "USD", IsDefault: true}
	recorded := &Price{PerUnit: 1, CurrencyID: "eur"}
	manual := &Price{PerUnit: 1, Manual: true}

	tests := []struct {
		name     string
		selected string
		price    *Price
		def      *db.Currency
		want     *string
	}{
		{"selected wins over recorded", "inr", recorded, def, db.String("inr")},
		{"recorded price currency", "", recorded, def, db.String("eur")},
		{"manual falls back to default", "", manual, def, db.String("usd")},
		{"no price falls back to default", "", nil, def, db.String("usd")},
		{"nothing known", "", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCurrency(tt.selected, tt.price, tt.def))
		})
	}
}

func TestNormalize_Completed(t *testing.T) {
	trip := &db.Trip{
		ID:           "t1",
		VehicleID:    "v1",
		VehicleName:  "Civic",
		StartMileage: f(1000),
		EndMileage:   f(1350),
		FuelFilled:   f(25),
	}
	Normalize(trip, nil, nil)

	assert.Equal(t, db.TripStatusCompleted, trip.Status)
	require.NotNil(t, trip.TripDistance)
	require.NotNil(t, trip.FuelEfficiency)
	assert.Equal(t, 350.0, *trip.TripDistance)
	assert.Equal(t, 14.0, *trip.FuelEfficiency)
	assert.Nil(t, trip.FuelCost)
	assert.Nil(t, trip.FuelPricePerUnit)
	assert.Nil(t, trip.CurrencyID)
}

func TestNormalize_CompletedWithPrice(t *testing.T) {
	trip := &db.Trip{StartMileage: f(1000), EndMileage: f(1350), FuelFilled: f(25)}
	Normalize(trip, &Price{PerUnit: 2, CurrencyID: "eur"}, db.String("eur"))

	assert.Equal(t, db.TripStatusCompleted, trip.Status)
	require.NotNil(t, trip.FuelCost)
	assert.Equal(t, 50.0, *trip.FuelCost)
	assert.Equal(t, db.Float(2), trip.FuelPricePerUnit)
	assert.Equal(t, db.String("eur"), trip.CurrencyID)
}

func TestNormalize_DraftClearsDerived(t *testing.T) {
	// stale values from an earlier complete save must not survive
	trip := &db.Trip{
		StartMileage:   f(1000),
		EndMileage:     f(1350),
		TripDistance:   f(350),
		FuelEfficiency: f(14),
		FuelCost:       f(50),
		Status:         db.TripStatusCompleted,
	}
	Normalize(trip, &Price{PerUnit: 2}, db.String("usd"))

	assert.Equal(t, db.TripStatusDraft, trip.Status)
	assert.Nil(t, trip.TripDistance)
	assert.Nil(t, trip.FuelEfficiency)
	assert.Nil(t, trip.FuelCost)
	// the price snapshot is kept on drafts
	assert.Equal(t, db.Float(2), trip.FuelPricePerUnit)
	assert.Equal(t, db.String("usd"), trip.CurrencyID)
}

func TestValidateCalculate(t *testing.T) {
	civic := &db.Vehicle{ID: "v1", Name: "Civic", FuelType: db.FuelTypePetrol}

	start, end, fuel, err := ValidateCalculate(civic, Readings{StartMileage: f(1000), EndMileage: f(1350), FuelFilled: f(25)})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, start)
	assert.Equal(t, 1350.0, end)
	assert.Equal(t, 25.0, fuel)

	tests := []struct {
		name     string
		vehicle  *db.Vehicle
		readings Readings
		field    Field
		msg      string
	}{
		{"no vehicle", nil, Readings{StartMileage: f(1), EndMileage: f(2), FuelFilled: f(1)}, FieldVehicle, "Please select a vehicle profile."},
		{"missing start", civic, Readings{EndMileage: f(2), FuelFilled: f(1)}, FieldStartMileage, "Start and End mileage must be valid numbers."},
		{"missing end", civic, Readings{StartMileage: f(2), FuelFilled: f(1)}, FieldEndMileage, "Start and End mileage must be valid numbers."},
		{"negative start", civic, Readings{StartMileage: f(-1), EndMileage: f(2), FuelFilled: f(1)}, FieldStartMileage, "Mileage cannot be negative."},
		{"reversed", civic, Readings{StartMileage: f(1350), EndMileage: f(1000), FuelFilled: f(10)}, FieldEndMileage, "End mileage must be greater than start mileage."},
		{"equal", civic, Readings{StartMileage: f(1000), EndMileage: f(1000), FuelFilled: f(10)}, FieldEndMileage, "End mileage must be greater than start mileage."},
		{"zero fuel", civic, Readings{StartMileage: f(1), EndMileage: f(2), FuelFilled: f(0)}, FieldFuelFilled, "Fuel filled must be a positive number."},
		{"missing fuel", civic, Readings{StartMileage: f(1), EndMileage: f(2)}, FieldFuelFilled, "Fuel filled must be a positive number."},
		{"nan start", civic, Readings{StartMileage: f(math.NaN()), EndMileage: f(2), FuelFilled: f(1)}, FieldStartMileage, "Start and End mileage must be valid numbers."},
		{"infinite end", civic, Readings{StartMileage: f(1), EndMileage: f(math.Inf(1)), FuelFilled: f(1)}, FieldEndMileage, "Start and End mileage must be valid numbers."},
		{"infinite fuel", civic, Readings{StartMileage: f(1), EndMileage: f(2), FuelFilled: f(math.Inf(1))}, FieldFuelFilled, "Fuel filled must be a positive number."},
		{"nan fuel", civic, Readings{StartMileage: f(1), EndMileage: f(2), FuelFilled: f(math.NaN())}, FieldFuelFilled, "Fuel filled must be a positive number."},
		{"nan price", civic, Readings{StartMileage: f(1), EndMileage: f(2), FuelFilled: f(1), ManualPrice: f(math.NaN())}, FieldFuelPrice, "Fuel price must be a valid number."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ValidateCalculate(tt.vehicle, tt.readings)
			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.msg, fe.Message)
		})
	}
}

func TestValidateDraft(t *testing.T) {
	civic := &db.Vehicle{ID: "v1", Name: "Civic", FuelType: db.FuelTypePetrol}

	assert.NoError(t, ValidateDraft(civic, Readings{}))
	assert.NoError(t, ValidateDraft(civic, Readings{StartMileage: f(1000)}))
	assert.NoError(t, ValidateDraft(civic, Readings{StartMileage: f(1000), EndMileage: f(1000)}))

	err := ValidateDraft(civic, Readings{StartMileage: f(1350), EndMileage: f(1000)})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "End mileage cannot be less than start mileage.", fe.Message)

	err = ValidateDraft(nil, Readings{})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldVehicle, fe.Field)

	err = ValidateDraft(civic, Readings{StartMileage: f(math.Inf(-1))})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldStartMileage, fe.Field)

	err = ValidateDraft(civic, Readings{FuelFilled: f(math.NaN())})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldFuelFilled, fe.Field)
}

func TestValidateLegacyVehicle(t *testing.T) {
	v := &db.Vehicle{Name: " Old Car "}
	require.NoError(t, ValidateLegacyVehicle(v))
	assert.Equal(t, "Old Car", v.Name)

	err := ValidateLegacyVehicle(&db.Vehicle{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, "Vehicle name must be at least 2 characters", err.Error())
}

func TestValidateVehicle(t *testing.T) {
	v := &db.Vehicle{Name: "  Civic ", Make: " Honda ", FuelType: db.FuelTypePetrol}
	require.NoError(t, ValidateVehicle(v))
	assert.Equal(t, "Civic", v.Name)
	assert.Equal(t, "Honda", v.Make)

	tests := []struct {
		name    string
		vehicle db.Vehicle
		msg     string
	}{
		{"blank", db.Vehicle{Name: "   ", FuelType: db.FuelTypeCNG}, "Vehicle name cannot be empty"},
		{"too short", db.Vehicle{Name: "A", FuelType: db.FuelTypeCNG}, "Vehicle name must be at least 2 characters"},
		{"too long", db.Vehicle{Name: strings.Repeat("x", 51), FuelType: db.FuelTypeCNG}, "Vehicle name cannot exceed 50 characters"},
		{"no fuel type", db.Vehicle{Name: "Civic"}, "Please select a fuel type"},
		{"unknown fuel type", db.Vehicle{Name: "Civic", FuelType: "HYDROGEN"}, "Please select a fuel type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVehicle(&tt.vehicle)
			require.Error(t, err)
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	// limit counts characters, not bytes
	assert.NoError(t, ValidateVehicle(&db.Vehicle{Name: strings.Repeat("é", 50), FuelType: db.FuelTypeDiesel}))
}

func TestParseOptionalFloat(t *testing.T) {
	v, err := ParseOptionalFloat("  ")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseOptionalFloat(" 12.5 ")
	require.NoError(t, err)
	assert.Equal(t, 12.5, *v)

	_, err = ParseOptionalFloat("abc")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to convert")

	for _, in := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "1e400"} {
		_, err = ParseOptionalFloat(in)
		assert.Error(t, err, in)
	}
}

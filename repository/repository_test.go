package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mileage/backup"
	dbt "mileage/db/db"
	"mileage/db/mem"
	"mileage/metrics"
	"mileage/mq/goch"
	"mileage/mq/mq"
)

const account = "driver@example.com"

type brokenStore struct{}

func (brokenStore) Save(ctx context.Context, account string, name string, data []byte) error {
	return errors.New("network down")
}

func (brokenStore) Load(ctx context.Context, account string, name string) ([]byte, error) {
	return nil, errors.New("network down")
}

func setupTest(t *testing.T) (*Repository, *backup.Backup, mq.ChangeMessageQueue) {
	t.Helper()
	bus := goch.NewGoChanChangeMessageQueue(goch.DefaultBufferSize)
	t.Cleanup(bus.Close)
	store, err := backup.NewDirStore(filepath.Join(t.TempDir(), "backup"))
	require.NoError(t, err)
	b := backup.New(store)
	return New(mem.NewInMemoryDBWrapper(), bus, b, metrics.New(prometheus.NewRegistry())), b, bus
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestRepository_PublishesChanges(t *testing.T) {
	repo, _, bus := setupTest(t)
	ctx := context.Background()

	_, changes, err := bus.Subscribe(mq.TableVehicles)
	require.NoError(t, err)

	civic := &dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol}
	require.NoError(t, repo.AddVehicle(ctx, civic, "u1"))

	msg := receive(t, changes)
	assert.Equal(t, mq.TableVehicles, msg.Table)
	assert.Equal(t, mq.ActionCreate, msg.Action)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, civic.ID, msg.RowID)
}

func TestRepository_DeleteVehicle(t *testing.T) {
	repo, _, _ := setupTest(t)
	ctx := context.Background()

	civic := &dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol}
	require.NoError(t, repo.AddVehicle(ctx, civic, "u1"))
	trip := &dbt.Trip{VehicleID: civic.ID, VehicleName: "Civic", Status: dbt.TripStatusDraft}
	require.NoError(t, repo.AddTrip(ctx, trip, "u1"))

	// Test 1: blocked while a trip references it
	ok, err := repo.CanDeleteVehicle(ctx, civic.ID, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	err = repo.DeleteVehicle(ctx, civic.ID, "u1")
	assert.ErrorIs(t, err, dbt.ErrVehicleHasTrips)
	_, err = repo.GetVehicle(ctx, civic.ID, "u1")
	assert.NoError(t, err)
	trips, _ := repo.ListTrips(ctx, "u1")
	assert.Len(t, trips, 1)

	// Test 2: allowed once the trips are gone
	require.NoError(t, repo.DeleteTrip(ctx, trip.ID, "u1"))
	ok, err = repo.CanDeleteVehicle(ctx, civic.ID, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, repo.DeleteVehicle(ctx, civic.ID, "u1"))
	_, err = repo.GetVehicle(ctx, civic.ID, "u1")
	assert.ErrorIs(t, err, dbt.ErrNotFound)
}

func TestRepository_CurrencyAndFuelPrice(t *testing.T) {
	repo, _, _ := setupTest(t)
	ctx := context.Background()

	def, err := repo.GetDefaultCurrency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "usd", def.ID)

	require.NoError(t, repo.SetDefaultCurrency(ctx, "eur"))
	currencies, err := repo.ListCurrencies(ctx)
	require.NoError(t, err)
	defaults := 0
	for _, c := range currencies {
		if c.IsDefault {
			defaults++
			assert.Equal(t, "eur", c.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	assert.ErrorIs(t, repo.SetDefaultCurrency(ctx, "nope"), dbt.ErrNotFound)

	latest, err := repo.GetLatestFuelPrice(ctx, dbt.FuelTypeDiesel)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, repo.AddFuelPrice(ctx, &dbt.FuelPrice{FuelType: dbt.FuelTypeDiesel, PricePerUnit: 1.5, CurrencyID: "eur"}))
	second := &dbt.FuelPrice{FuelType: dbt.FuelTypeDiesel, PricePerUnit: 1.7, CurrencyID: "eur"}
	require.NoError(t, repo.AddFuelPrice(ctx, second))

	latest, err = repo.GetLatestFuelPrice(ctx, dbt.FuelTypeDiesel)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	active, err := repo.ListActiveFuelPrices(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestRepository_ObserveTrips(t *testing.T) {
	repo, _, _ := setupTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	civic := &dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol}
	require.NoError(t, repo.AddVehicle(ctx, civic, "u1"))

	stream, err := repo.ObserveTrips(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, receive(t, stream))

	trip := &dbt.Trip{VehicleID: civic.ID, VehicleName: "Civic", Status: dbt.TripStatusDraft}
	require.NoError(t, repo.AddTrip(ctx, trip, "u1"))
	trips := receive(t, stream)
	require.Len(t, trips, 1)
	assert.Equal(t, "Civic", trips[0].VehicleName)

	// renaming the vehicle re-emits trips with the new name
	civic.Name = "Civic Type R"
	require.NoError(t, repo.UpdateVehicle(ctx, civic, "u1"))
	trips = receive(t, stream)
	require.Len(t, trips, 1)
	assert.Equal(t, "Civic Type R", trips[0].VehicleName)

	cancel()
	for range stream {
	}
}

func TestRepository_BackupAndRestore(t *testing.T) {
	repo, b, _ := setupTest(t)
	ctx := context.Background()

	civic := &dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol}
	require.NoError(t, repo.AddVehicle(ctx, civic, "u1"))
	trip := &dbt.Trip{
		VehicleID:      civic.ID,
		VehicleName:    "Civic",
		StartMileage:   dbt.Float(1000),
		EndMileage:     dbt.Float(1350),
		FuelFilled:     dbt.Float(25),
		TripDistance:   dbt.Float(350),
		FuelEfficiency: dbt.Float(14),
		Status:         dbt.TripStatusCompleted,
	}
	require.NoError(t, repo.AddTrip(ctx, trip, "u1"))
	require.NoError(t, b.SaveLegacyCars(ctx, account, []string{"Old Beetle", "Civic", " "}))

	// Test 1: backup everything
	assert.True(t, repo.BackupAll(ctx, "u1", account))

	// Test 2: restore on a fresh store replays every item
	bus := goch.NewGoChanChangeMessageQueue(goch.DefaultBufferSize)
	defer bus.Close()
	fresh := New(mem.NewInMemoryDBWrapper(), bus, b, nil)
	res := fresh.RestoreFromDrive(ctx, "u1", account, false)
	assert.Equal(t, RestoreResult{OK: true}, res)
	vehicles, err := fresh.ListVehicles(ctx, "u1")
	require.NoError(t, err)
	names := []string{}
	for _, v := range vehicles {
		names = append(names, v.Name)
	}
	assert.ElementsMatch(t, []string{"Civic", "Old Beetle"}, names)

	trips, err := fresh.ListTrips(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, trip.ID, trips[0].ID)
	assert.Equal(t, dbt.TripStatusCompleted, trips[0].Status)
	assert.Equal(t, 350.0, *trips[0].TripDistance)

	// Test 3: restoring twice does not duplicate rows
	assert.True(t, fresh.RestoreFromDrive(ctx, "u1", account, false).OK)
	vehicles, _ = fresh.ListVehicles(ctx, "u1")
	assert.Len(t, vehicles, 2)
	trips, _ = fresh.ListTrips(ctx, "u1")
	assert.Len(t, trips, 1)
}

func TestRepository_RestoreNormalizesTrips(t *testing.T) {
	repo, b, _ := setupTest(t)
	ctx := context.Background()

	require.NoError(t, b.SaveVehicles(ctx, account, []dbt.Vehicle{{ID: "v1", Name: "Civic", FuelType: dbt.FuelTypePetrol}}))
	// a backed up draft that still carries derived values
	require.NoError(t, b.SaveTrips(ctx, account, []dbt.Trip{{
		ID:           "t1",
		VehicleID:    "v1",
		StartMileage: dbt.Float(1000),
		TripDistance: dbt.Float(350),
		Status:       dbt.TripStatusCompleted,
	}}))
	assert.Equal(t, RestoreResult{OK: true}, repo.RestoreFromDrive(ctx, "u1", account, false))

	got, err := repo.GetTrip(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, dbt.TripStatusDraft, got.Status)
	assert.Nil(t, got.TripDistance)
}

func TestRepository_BackupFailures(t *testing.T) {
	ctx := context.Background()
	bus := goch.NewGoChanChangeMessageQueue(goch.DefaultBufferSize)
	defer bus.Close()

	// Test 1: disabled backup
	repo := New(mem.NewInMemoryDBWrapper(), bus, nil, nil)
	assert.False(t, repo.BackupEnabled())
	assert.False(t, repo.BackupTripsToDrive(ctx, "u1", account))
	assert.False(t, repo.RestoreFromDrive(ctx, "u1", account, false).OK)

	// Test 2: remote errors become false, local data is untouched
	repo = New(mem.NewInMemoryDBWrapper(), bus, backup.New(brokenStore{}), nil)
	require.NoError(t, repo.AddVehicle(ctx, &dbt.Vehicle{Name: "Civic"}, "u1"))
	assert.False(t, repo.BackupTripsToDrive(ctx, "u1", account))
	assert.False(t, repo.BackupAll(ctx, "u1", account))
	// replace never clears local data when the backup cannot be read
	assert.False(t, repo.RestoreFromDrive(ctx, "u1", account, true).OK)
	vehicles, err := repo.ListVehicles(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)
}

func TestRepository_RestoreSkipsInvalid(t *testing.T) {
	repo, b, _ := setupTest(t)
	ctx := context.Background()

	require.NoError(t, b.SaveVehicles(ctx, account, []dbt.Vehicle{
		{ID: "v-ok", Name: "  Civic ", FuelType: dbt.FuelTypePetrol},
		{ID: "v-short", Name: "X", FuelType: dbt.FuelTypePetrol},
		{ID: "v-lpg", Name: "Gas Guzzler", FuelType: "LPG"},
		{ID: "v-legacy", Name: "Old Beetle"},
	}))
	require.NoError(t, b.SaveTrips(ctx, account, []dbt.Trip{
		{ID: "t-ok", VehicleID: "v-ok", StartMileage: dbt.Float(1000), EndMileage: dbt.Float(1350), FuelFilled: dbt.Float(25)},
		{ID: "t-legacy", VehicleID: "v-legacy", StartMileage: dbt.Float(10)},
		{ID: "t-orphan", VehicleID: "no-such-vehicle", StartMileage: dbt.Float(1000)},
		{ID: "t-skipped-vehicle", VehicleID: "v-lpg", StartMileage: dbt.Float(1000)},
		{ID: "t-reversed", VehicleID: "v-ok", StartMileage: dbt.Float(1350), EndMileage: dbt.Float(1000)},
	}))
	require.NoError(t, b.SaveLegacyCars(ctx, account, []string{"Q"}))

	res := repo.RestoreFromDrive(ctx, "u1", account, false)
	assert.Equal(t, RestoreResult{OK: true, SkippedVehicles: 3, SkippedTrips: 3}, res)

	vehicles, err := repo.ListVehicles(ctx, "u1")
	require.NoError(t, err)
	ids := []string{}
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}
	assert.ElementsMatch(t, []string{"v-ok", "v-legacy"}, ids)

	got, err := repo.GetVehicle(ctx, "v-ok", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Civic", got.Name)

	trips, err := repo.ListTrips(ctx, "u1")
	require.NoError(t, err)
	ids = ids[:0]
	for _, trip := range trips {
		ids = append(ids, trip.ID)
	}
	assert.ElementsMatch(t, []string{"t-ok", "t-legacy"}, ids)

	_, err = repo.GetTrip(ctx, "t-orphan", "u1")
	assert.ErrorIs(t, err, dbt.ErrNotFound)
}

func TestRepository_RestoreReplace(t *testing.T) {
	repo, b, _ := setupTest(t)
	ctx := context.Background()

	require.NoError(t, b.SaveVehicles(ctx, account, []dbt.Vehicle{{ID: "v1", Name: "Civic", FuelType: dbt.FuelTypePetrol}}))
	require.NoError(t, b.SaveTrips(ctx, account, []dbt.Trip{{ID: "t1", VehicleID: "v1", StartMileage: dbt.Float(1000)}}))

	local := &dbt.Vehicle{Name: "Local", FuelType: dbt.FuelTypeDiesel}
	require.NoError(t, repo.AddVehicle(ctx, local, "u1"))
	require.NoError(t, repo.AddTrip(ctx, &dbt.Trip{VehicleID: local.ID, StartMileage: dbt.Float(5)}, "u1"))
	other := &dbt.Vehicle{Name: "Other", FuelType: dbt.FuelTypeCNG}
	require.NoError(t, repo.AddVehicle(ctx, other, "u2"))

	// Test 1: merge keeps local rows
	require.True(t, repo.RestoreFromDrive(ctx, "u1", account, false).OK)
	vehicles, _ := repo.ListVehicles(ctx, "u1")
	assert.Len(t, vehicles, 2)

	// Test 2: replace drops them, other users are untouched
	require.True(t, repo.RestoreFromDrive(ctx, "u1", account, true).OK)
	vehicles, _ = repo.ListVehicles(ctx, "u1")
	require.Len(t, vehicles, 1)
	assert.Equal(t, "v1", vehicles[0].ID)
	trips, _ := repo.ListTrips(ctx, "u1")
	require.Len(t, trips, 1)
	assert.Equal(t, "t1", trips[0].ID)
	vehicles, _ = repo.ListVehicles(ctx, "u2")
	assert.Len(t, vehicles, 1)
}

func TestRepository_DeleteVehicleWithTrips(t *testing.T) {
	repo, _, bus := setupTest(t)
	ctx := context.Background()

	civic := &dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol}
	golf := &dbt.Vehicle{Name: "Golf", FuelType: dbt.FuelTypeDiesel}
	require.NoError(t, repo.AddVehicle(ctx, civic, "u1"))
	require.NoError(t, repo.AddVehicle(ctx, golf, "u1"))
	require.NoError(t, repo.AddTrip(ctx, &dbt.Trip{VehicleID: civic.ID, StartMileage: dbt.Float(1)}, "u1"))
	require.NoError(t, repo.AddTrip(ctx, &dbt.Trip{VehicleID: golf.ID, StartMileage: dbt.Float(1)}, "u1"))

	assert.ErrorIs(t, repo.DeleteVehicle(ctx, civic.ID, "u1"), dbt.ErrVehicleHasTrips)

	_, changes, err := bus.Subscribe(mq.TableTrips)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteVehicleWithTrips(ctx, civic.ID, "u1"))
	// creates published before subscribing may still be in flight
	msg := receive(t, changes)
	for msg.Action != mq.ActionDelete {
		msg = receive(t, changes)
	}
	assert.Equal(t, "u1", msg.UserID)

	_, err = repo.GetVehicle(ctx, civic.ID, "u1")
	assert.ErrorIs(t, err, dbt.ErrNotFound)
	trips, err := repo.ListTrips(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, golf.ID, trips[0].VehicleID)

	// another user's vehicle is not found
	assert.ErrorIs(t, repo.DeleteVehicleWithTrips(ctx, golf.ID, "u2"), dbt.ErrNotFound)
}

func TestRepository_ClearUserData(t *testing.T) {
	repo, _, _ := setupTest(t)
	ctx := context.Background()

	for _, user := range []string{"u1", "u2"} {
		v := &dbt.Vehicle{Name: "Civic", FuelType: dbt.FuelTypePetrol}
		require.NoError(t, repo.AddVehicle(ctx, v, user))
		require.NoError(t, repo.AddTrip(ctx, &dbt.Trip{VehicleID: v.ID, StartMileage: dbt.Float(1)}, user))
	}

	require.NoError(t, repo.ClearUserData(ctx, "u1"))
	vehicles, _ := repo.ListVehicles(ctx, "u1")
	assert.Empty(t, vehicles)
	trips, _ := repo.ListTrips(ctx, "u1")
	assert.Empty(t, trips)

	vehicles, _ = repo.ListVehicles(ctx, "u2")
	assert.Len(t, vehicles, 1)
	trips, _ = repo.ListTrips(ctx, "u2")
	assert.Len(t, trips, 1)
}

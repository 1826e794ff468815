package mem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	dbt "mileage/db/db"
)

type ownedVehicle struct {
	userID    string
	vehicle   dbt.Vehicle
	createdAt time.Time
}

type ownedTrip struct {
	userID string
	trip   dbt.Trip
}

// inMemoryDBWrapper is an in-memory implementation of dbt.DBWrapper.
// It follows the same ordering, scoping and flag rules as the SQL wrapper.
type inMemoryDBWrapper struct {
	vehicles   map[string]*ownedVehicle
	trips      map[string]*ownedTrip
	currencies map[string]*dbt.Currency
	fuelPrices map[string]*dbt.FuelPrice

	now func() time.Time
	mu  sync.RWMutex
}

// SeedCurrencies are present in every new store, USD being the default.
var SeedCurrencies = []dbt.Currency{
	{ID: "usd", Code: "USD", Name: "US Dollar", Symbol: "$", IsDefault: true},
	{ID: "eur", Code: "EUR", Name: "Euro", Symbol: "€"},
	{ID: "inr", Code: "INR", Name: "Indian Rupee", Symbol: "₹"},
	{ID: "gbp", Code: "GBP", Name: "British Pound", Symbol: "£"},
}

// NewInMemoryDBWrapper creates and returns a new instance of inMemoryDBWrapper.
func NewInMemoryDBWrapper() dbt.DBWrapper {
	db := &inMemoryDBWrapper{
		vehicles:   make(map[string]*ownedVehicle),
		trips:      make(map[string]*ownedTrip),
		currencies: make(map[string]*dbt.Currency),
		fuelPrices: make(map[string]*dbt.FuelPrice),
		now:        monotonicNow(),
	}
	for _, c := range SeedCurrencies {
		c := c
		db.currencies[c.ID] = &c
	}
	return db
}

// monotonicNow never returns the same instant twice, so ordering by time is total.
func monotonicNow() func() time.Time {
	var last time.Time
	return func() time.Time {
		t := time.Now().UTC()
		if !t.After(last) {
			t = last.Add(time.Microsecond)
		}
		last = t
		return t
	}
}

// ---- vehicles ----

func (db *inMemoryDBWrapper) ListVehicles(ctx context.Context, userID string) ([]dbt.Vehicle, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	vehicles := []dbt.Vehicle{}
	for _, v := range db.vehicles {
		if v.userID == userID {
			vehicles = append(vehicles, v.vehicle)
		}
	}
	sort.SliceStable(vehicles, func(i, j int) bool { return vehicles[i].Name < vehicles[j].Name })
	return vehicles, nil
}

func (db *inMemoryDBWrapper) GetVehicle(ctx context.Context, id string, userID string) (*dbt.Vehicle, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	v, exists := db.vehicles[id]
	if !exists || v.userID != userID {
		return nil, fmt.Errorf("vehicle with ID %s %w", id, dbt.ErrNotFound)
	}
	// Return a copy to prevent external modification
	vehicleCopy := v.vehicle
	return &vehicleCopy, nil
}

func (db *inMemoryDBWrapper) GetVehicleByName(ctx context.Context, name string, userID string) (*dbt.Vehicle, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var found *ownedVehicle
	for _, v := range db.vehicles {
		if v.userID != userID || v.vehicle.Name != name {
			continue
		}
		if found == nil || v.createdAt.Before(found.createdAt) {
			found = v
		}
	}
	if found == nil {
		return nil, fmt.Errorf("vehicle named %q %w", name, dbt.ErrNotFound)
	}
	vehicleCopy := found.vehicle
	return &vehicleCopy, nil
}

func (db *inMemoryDBWrapper) HasTrips(ctx context.Context, vehicleID string, userID string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.hasTrips(vehicleID, userID), nil
}

func (db *inMemoryDBWrapper) hasTrips(vehicleID string, userID string) bool {
	for _, t := range db.trips {
		if t.userID == userID && t.trip.VehicleID == vehicleID {
			return true
		}
	}
	return false
}

func (db *inMemoryDBWrapper) UpsertVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	existing, exists := db.vehicles[vehicle.ID]
	if exists && existing.userID != userID {
		return fmt.Errorf("vehicle with ID %s belongs to another user: %w", vehicle.ID, dbt.ErrNotFound)
	}
	if exists {
		existing.vehicle = *vehicle
		return nil
	}
	db.vehicles[vehicle.ID] = &ownedVehicle{userID: userID, vehicle: *vehicle, createdAt: db.now()}
	return nil
}

func (db *inMemoryDBWrapper) UpdateVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, exists := db.vehicles[vehicle.ID]
	if !exists || existing.userID != userID {
		return fmt.Errorf("vehicle with ID %s %w for update", vehicle.ID, dbt.ErrNotFound)
	}
	existing.vehicle = *vehicle
	return nil
}

func (db *inMemoryDBWrapper) DeleteVehicle(ctx context.Context, vehicle *dbt.Vehicle, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.hasTrips(vehicle.ID, userID) {
		return fmt.Errorf("cannot delete vehicle %s: %w", vehicle.ID, dbt.ErrVehicleHasTrips)
	}
	existing, exists := db.vehicles[vehicle.ID]
	if !exists || existing.userID != userID {
		return fmt.Errorf("vehicle with ID %s %w for delete", vehicle.ID, dbt.ErrNotFound)
	}
	delete(db.vehicles, vehicle.ID)
	return nil
}

func (db *inMemoryDBWrapper) DeleteAllVehicles(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, v := range db.vehicles {
		if v.userID == userID {
			delete(db.vehicles, id)
		}
	}
	return nil
}

// ---- trips ----

func (db *inMemoryDBWrapper) ListTrips(ctx context.Context, userID string) ([]dbt.Trip, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	trips := []dbt.Trip{}
	for _, t := range db.trips {
		if t.userID != userID {
			continue
		}
		trip := t.trip
		if v, ok := db.vehicles[trip.VehicleID]; ok && v.userID == userID {
			trip.VehicleName = v.vehicle.Name
		}
		trips = append(trips, trip)
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].UpdatedAt.After(trips[j].UpdatedAt) })
	return trips, nil
}

func (db *inMemoryDBWrapper) GetTrip(ctx context.Context, id string, userID string) (*dbt.Trip, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, exists := db.trips[id]
	if !exists || t.userID != userID {
		return nil, fmt.Errorf("trip with ID %s %w", id, dbt.ErrNotFound)
	}
	tripCopy := t.trip
	return &tripCopy, nil
}

func (db *inMemoryDBWrapper) UpsertTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	existing, exists := db.trips[trip.ID]
	if exists && existing.userID != userID {
		return fmt.Errorf("trip with ID %s belongs to another user: %w", trip.ID, dbt.ErrNotFound)
	}

	now := db.now()
	switch {
	case exists:
		trip.CreatedAt = existing.trip.CreatedAt
	case trip.CreatedAt.IsZero():
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	db.trips[trip.ID] = &ownedTrip{userID: userID, trip: *trip}
	return nil
}

func (db *inMemoryDBWrapper) UpdateTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, exists := db.trips[trip.ID]
	if !exists || existing.userID != userID {
		return fmt.Errorf("trip with ID %s %w for update", trip.ID, dbt.ErrNotFound)
	}
	trip.CreatedAt = existing.trip.CreatedAt
	trip.UpdatedAt = db.now()
	existing.trip = *trip
	return nil
}

func (db *inMemoryDBWrapper) DeleteTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, exists := db.trips[trip.ID]
	if !exists || existing.userID != userID {
		return fmt.Errorf("trip with ID %s %w for delete", trip.ID, dbt.ErrNotFound)
	}
	delete(db.trips, trip.ID)
	return nil
}

func (db *inMemoryDBWrapper) DeleteTripsByVehicle(ctx context.Context, vehicleID string, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, t := range db.trips {
		if t.userID == userID && t.trip.VehicleID == vehicleID {
			delete(db.trips, id)
		}
	}
	return nil
}

func (db *inMemoryDBWrapper) DeleteAllTrips(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, t := range db.trips {
		if t.userID == userID {
			delete(db.trips, id)
		}
	}
	return nil
}

// ---- currencies ----

func (db *inMemoryDBWrapper) ListCurrencies(ctx context.Context) ([]dbt.Currency, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	currencies := make([]dbt.Currency, 0, len(db.currencies))
	for _, c := range db.currencies {
		currencies = append(currencies, *c)
	}
	sort.SliceStable(currencies, func(i, j int) bool {
		if currencies[i].IsDefault != currencies[j].IsDefault {
			return currencies[i].IsDefault
		}
		return currencies[i].Name < currencies[j].Name
	})
	return currencies, nil
}

func (db *inMemoryDBWrapper) GetCurrency(ctx context.Context, id string) (*dbt.Currency, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	c, exists := db.currencies[id]
	if !exists {
		return nil, fmt.Errorf("currency with ID %s %w", id, dbt.ErrNotFound)
	}
	currencyCopy := *c
	return &currencyCopy, nil
}

func (db *inMemoryDBWrapper) GetDefaultCurrency(ctx context.Context) (*dbt.Currency, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, c := range db.currencies {
		if c.IsDefault {
			currencyCopy := *c
			return &currencyCopy, nil
		}
	}
	return nil, fmt.Errorf("default currency %w", dbt.ErrNotFound)
}

func (db *inMemoryDBWrapper) clearDefaultCurrency(exceptID string) {
	for id, c := range db.currencies {
		if id != exceptID {
			c.IsDefault = false
		}
	}
}

func (db *inMemoryDBWrapper) UpsertCurrency(ctx context.Context, currency *dbt.Currency) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if currency.ID == "" {
		currency.ID = uuid.NewString()
	}
	if currency.IsDefault {
		db.clearDefaultCurrency(currency.ID)
	}
	currencyCopy := *currency
	db.currencies[currency.ID] = &currencyCopy
	return nil
}

func (db *inMemoryDBWrapper) UpdateCurrency(ctx context.Context, currency *dbt.Currency) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.currencies[currency.ID]; !exists {
		return fmt.Errorf("currency with ID %s %w for update", currency.ID, dbt.ErrNotFound)
	}
	if currency.IsDefault {
		db.clearDefaultCurrency(currency.ID)
	}
	currencyCopy := *currency
	db.currencies[currency.ID] = &currencyCopy
	return nil
}

func (db *inMemoryDBWrapper) DeleteCurrency(ctx context.Context, currency *dbt.Currency) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.currencies[currency.ID]; !exists {
		return fmt.Errorf("currency with ID %s %w for delete", currency.ID, dbt.ErrNotFound)
	}
	delete(db.currencies, currency.ID)
	return nil
}

func (db *inMemoryDBWrapper) SetDefaultCurrency(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	target, exists := db.currencies[id]
	if !exists {
		return fmt.Errorf("currency with ID %s %w", id, dbt.ErrNotFound)
	}
	db.clearDefaultCurrency(id)
	target.IsDefault = true
	return nil
}

// ---- fuel prices ----

func (db *inMemoryDBWrapper) ListActiveFuelPrices(ctx context.Context) ([]dbt.FuelPrice, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	prices := []dbt.FuelPrice{}
	for _, p := range db.fuelPrices {
		if p.IsActive {
			prices = append(prices, *p)
		}
	}
	sort.SliceStable(prices, func(i, j int) bool { return prices[i].LastUpdated.After(prices[j].LastUpdated) })
	return prices, nil
}

func (db *inMemoryDBWrapper) GetFuelPrice(ctx context.Context, id string) (*dbt.FuelPrice, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, exists := db.fuelPrices[id]
	if !exists {
		return nil, fmt.Errorf("fuel price with ID %s %w", id, dbt.ErrNotFound)
	}
	priceCopy := *p
	return &priceCopy, nil
}

func (db *inMemoryDBWrapper) GetLatestFuelPrice(ctx context.Context, fuelType dbt.FuelType) (*dbt.FuelPrice, error) {
	return db.latestFuelPrice(fuelType, func(p *dbt.FuelPrice) bool { return true })
}

func (db *inMemoryDBWrapper) GetLatestFuelPriceByCurrency(ctx context.Context, fuelType dbt.FuelType, currencyID string) (*dbt.FuelPrice, error) {
	return db.latestFuelPrice(fuelType, func(p *dbt.FuelPrice) bool { return p.CurrencyID == currencyID })
}

func (db *inMemoryDBWrapper) latestFuelPrice(fuelType dbt.FuelType, match func(p *dbt.FuelPrice) bool) (*dbt.FuelPrice, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var latest *dbt.FuelPrice
	for _, p := range db.fuelPrices {
		if p.FuelType != fuelType || !p.IsActive || !match(p) {
			continue
		}
		if latest == nil || p.LastUpdated.After(latest.LastUpdated) {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("active %s price %w", fuelType, dbt.ErrNotFound)
	}
	priceCopy := *latest
	return &priceCopy, nil
}

func (db *inMemoryDBWrapper) deactivateFuelPrices(fuelType dbt.FuelType, exceptID string) {
	for id, p := range db.fuelPrices {
		if id != exceptID && p.FuelType == fuelType {
			p.IsActive = false
		}
	}
}

func (db *inMemoryDBWrapper) AddFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if price.ID == "" {
		price.ID = uuid.NewString()
	}
	if _, exists := db.fuelPrices[price.ID]; exists {
		return fmt.Errorf("fuel price with ID %s already exists", price.ID)
	}
	if price.LastUpdated.IsZero() {
		price.LastUpdated = db.now()
	}
	price.IsActive = true
	db.deactivateFuelPrices(price.FuelType, price.ID)
	priceCopy := *price
	db.fuelPrices[price.ID] = &priceCopy
	return nil
}

func (db *inMemoryDBWrapper) UpdateFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.fuelPrices[price.ID]; !exists {
		return fmt.Errorf("fuel price with ID %s %w for update", price.ID, dbt.ErrNotFound)
	}
	if price.IsActive {
		db.deactivateFuelPrices(price.FuelType, price.ID)
	}
	priceCopy := *price
	db.fuelPrices[price.ID] = &priceCopy
	return nil
}

func (db *inMemoryDBWrapper) DeleteFuelPrice(ctx context.Context, price *dbt.FuelPrice) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.fuelPrices[price.ID]; !exists {
		return fmt.Errorf("fuel price with ID %s %w for delete", price.ID, dbt.ErrNotFound)
	}
	delete(db.fuelPrices, price.ID)
	return nil
}

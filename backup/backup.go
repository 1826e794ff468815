package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mileage/db/db"
)

// Document names inside an account's private backup space.
const (
	VehiclesDocument   = "mymileage_app_vehicles.json"
	TripsDocument      = "mymileage_app_trips.json"
	LegacyCarsDocument = "mymileage_app_cars.json"
)

// ErrNotExist is returned by Store.Load for a document never saved.
var ErrNotExist = errors.New("backup document does not exist")

// Store keeps whole JSON documents per account.
type Store interface {
	Save(ctx context.Context, account string, name string, data []byte) error
	Load(ctx context.Context, account string, name string) ([]byte, error)
}

// Bundle is everything a restore replays. A nil list means that document
// could not be read; a missing document reads as an empty list.
type Bundle struct {
	Vehicles   []db.Vehicle `json:"vehicles"`
	Trips      []db.Trip    `json:"trips"`
	LegacyCars []string     `json:"legacyCars"`
}

// Backup encodes domain lists into documents of a Store.
type Backup struct {
	store Store
}

func New(store Store) *Backup {
	return &Backup{store: store}
}

func (b *Backup) SaveVehicles(ctx context.Context, account string, vehicles []db.Vehicle) error {
	return save(ctx, b.store, account, VehiclesDocument, vehicles)
}

func (b *Backup) SaveTrips(ctx context.Context, account string, trips []db.Trip) error {
	return save(ctx, b.store, account, TripsDocument, trips)
}

func (b *Backup) SaveLegacyCars(ctx context.Context, account string, cars []string) error {
	return save(ctx, b.store, account, LegacyCarsDocument, cars)
}

func (b *Backup) LoadVehicles(ctx context.Context, account string) ([]db.Vehicle, error) {
	return load[db.Vehicle](ctx, b.store, account, VehiclesDocument)
}

func (b *Backup) LoadTrips(ctx context.Context, account string) ([]db.Trip, error) {
	return load[db.Trip](ctx, b.store, account, TripsDocument)
}

func (b *Backup) LoadLegacyCars(ctx context.Context, account string) ([]string, error) {
	return load[string](ctx, b.store, account, LegacyCarsDocument)
}

// Retrieve loads the three documents concurrently. Failed documents are
// left nil in the bundle and reported together in the error.
func (b *Backup) Retrieve(ctx context.Context, account string) (Bundle, error) {
	var (
		bundle                     Bundle
		vehErr, tripErr, legacyErr error
	)
	if account == "" {
		return bundle, fmt.Errorf("cannot retrieve backup: account is empty")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bundle.Vehicles, vehErr = b.LoadVehicles(gctx, account)
		return nil
	})
	g.Go(func() error {
		bundle.Trips, tripErr = b.LoadTrips(gctx, account)
		return nil
	})
	g.Go(func() error {
		bundle.LegacyCars, legacyErr = b.LoadLegacyCars(gctx, account)
		return nil
	})
	_ = g.Wait()

	return bundle, errors.Join(vehErr, tripErr, legacyErr)
}

func save[T any](ctx context.Context, store Store, account, name string, items []T) error {
	if account == "" {
		return fmt.Errorf("cannot save %s: account is empty", name)
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := store.Save(ctx, account, name, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	logrus.WithField("document", name).Debugf("saved %d items", len(items))
	return nil
}

func load[T any](ctx context.Context, store Store, account, name string) ([]T, error) {
	data, err := store.Load(ctx, account, name)
	if errors.Is(err, ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return items, nil
}

package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	dbt "mileage/db/db"
	"mileage/metrics"
	"mileage/mileage"
)

var ErrBackupDisabled = errors.New("remote backup is not configured")

func (r *Repository) BackupEnabled() bool {
	return r.backup != nil
}

// BackupTripsToDrive uploads a snapshot of the user's trips. Failures are
// logged and reported as false.
func (r *Repository) BackupTripsToDrive(ctx context.Context, userID string, account string) bool {
	err := r.backupTrips(ctx, userID, account)
	r.metrics.BackupDone(metrics.OperationBackup, err == nil)
	if err != nil {
		logrus.WithField("user", userID).Errorf("trip backup failed: %v", err)
		return false
	}
	return true
}

func (r *Repository) backupTrips(ctx context.Context, userID string, account string) error {
	if r.backup == nil {
		return ErrBackupDisabled
	}
	trips, err := r.db.ListTrips(ctx, userID)
	if err != nil {
		return err
	}
	return r.backup.SaveTrips(ctx, account, trips)
}

// BackupAll uploads vehicles and trips.
func (r *Repository) BackupAll(ctx context.Context, userID string, account string) bool {
	err := r.backupAll(ctx, userID, account)
	r.metrics.BackupDone(metrics.OperationBackup, err == nil)
	if err != nil {
		logrus.WithField("user", userID).Errorf("full backup failed: %v", err)
		return false
	}
	return true
}

func (r *Repository) backupAll(ctx context.Context, userID string, account string) error {
	if r.backup == nil {
		return ErrBackupDisabled
	}
	vehicles, err := r.db.ListVehicles(ctx, userID)
	if err != nil {
		return err
	}
	if err := r.backup.SaveVehicles(ctx, account, vehicles); err != nil {
		return err
	}
	return r.backupTrips(ctx, userID, account)
}

// RestoreResult reports a restore. Skipped items were dropped because they
// failed validation or, for trips, named a vehicle the user does not have.
type RestoreResult struct {
	OK              bool
	SkippedVehicles int
	SkippedTrips    int
}

// RestoreFromDrive replays a backup through the add paths: vehicles first,
// then trips, then legacy car names as vehicles. With replace set the user's
// trips and vehicles are cleared first, once the backup has loaded cleanly.
// Nothing restored is rolled back when a later item fails; OK is false if
// anything failed.
func (r *Repository) RestoreFromDrive(ctx context.Context, userID string, account string, replace bool) RestoreResult {
	var res RestoreResult
	err := r.restore(ctx, userID, account, replace, &res)
	r.metrics.BackupDone(metrics.OperationRestore, err == nil)
	log := logrus.WithFields(logrus.Fields{
		"user":             userID,
		"skipped_vehicles": res.SkippedVehicles,
		"skipped_trips":    res.SkippedTrips,
	})
	if err != nil {
		log.Errorf("restore failed: %v", err)
		return res
	}
	if res.SkippedVehicles > 0 || res.SkippedTrips > 0 {
		log.Warn("restore skipped invalid items")
	}
	res.OK = true
	return res
}

func (r *Repository) restore(ctx context.Context, userID string, account string, replace bool, res *RestoreResult) error {
	if r.backup == nil {
		return ErrBackupDisabled
	}
	bundle, loadErr := r.backup.Retrieve(ctx, account)
	var errs []error
	if loadErr != nil {
		errs = append(errs, loadErr)
	} else if replace {
		if err := r.ClearUserData(ctx, userID); err != nil {
			return err
		}
	}

	for i := range bundle.Vehicles {
		v := bundle.Vehicles[i]
		validate := mileage.ValidateVehicle
		if v.FuelType == "" {
			validate = mileage.ValidateLegacyVehicle
		}
		if err := validate(&v); err != nil {
			logrus.WithField("user", userID).Warnf("skipping vehicle %s: %v", v.ID, err)
			res.SkippedVehicles++
			continue
		}
		if err := r.AddVehicle(ctx, &v, userID); err != nil {
			errs = append(errs, err)
		}
	}

	for i := range bundle.Trips {
		t := bundle.Trips[i]
		ok, err := r.restorableTrip(ctx, &t, userID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			res.SkippedTrips++
			continue
		}
		mileage.Normalize(&t, snapshotPrice(&t), t.CurrencyID)
		if err := r.AddTrip(ctx, &t, userID); err != nil {
			errs = append(errs, err)
		}
	}

	for _, name := range bundle.LegacyCars {
		skipped, err := r.restoreLegacyCar(ctx, name, userID)
		if err != nil {
			errs = append(errs, err)
		}
		if skipped {
			res.SkippedVehicles++
		}
	}
	return errors.Join(errs...)
}

// restorableTrip reports whether the trip names one of the user's vehicles
// and passes the draft rules.
func (r *Repository) restorableTrip(ctx context.Context, t *dbt.Trip, userID string) (bool, error) {
	log := logrus.WithField("user", userID)
	vehicle, err := r.db.GetVehicle(ctx, t.VehicleID, userID)
	if errors.Is(err, dbt.ErrNotFound) {
		log.Warnf("skipping trip %s: vehicle %q not found", t.ID, t.VehicleID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	readings := mileage.Readings{StartMileage: t.StartMileage, EndMileage: t.EndMileage, FuelFilled: t.FuelFilled}
	if err := mileage.ValidateDraft(vehicle, readings); err != nil {
		log.Warnf("skipping trip %s: %v", t.ID, err)
		return false, nil
	}
	if t.VehicleName == "" {
		t.VehicleName = vehicle.Name
	}
	return true, nil
}

// restoreLegacyCar turns a name from the old flat car list into a vehicle
// without a fuel type, unless the user already has one by that name. Blank
// names are ignored; other invalid names are reported as skipped.
func (r *Repository) restoreLegacyCar(ctx context.Context, name string, userID string) (bool, error) {
	v := &dbt.Vehicle{Name: name}
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	if err := mileage.ValidateLegacyVehicle(v); err != nil {
		logrus.WithField("user", userID).Warnf("skipping legacy car %q: %v", name, err)
		return true, nil
	}
	_, err := r.db.GetVehicleByName(ctx, v.Name, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, dbt.ErrNotFound) {
		return false, err
	}
	return false, r.AddVehicle(ctx, v, userID)
}

// snapshotPrice recovers the price a trip was costed with when it was saved.
func snapshotPrice(t *dbt.Trip) *mileage.Price {
	if t.FuelPricePerUnit == nil {
		return nil
	}
	return &mileage.Price{PerUnit: *t.FuelPricePerUnit}
}

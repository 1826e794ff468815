package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mileage/auth"
	dbt "mileage/db/db"
	"mileage/mileage"
)

const (
	MessageCalculated = "Calculation complete!"
	MessageSaved      = "Trip saved successfully!"
	MessageDraft      = "Trip Saved as Draft"
)

// TripForm is one submission of the trip screen.
type TripForm struct {
	// TripID is the id of the trip being edited; empty starts a new trip.
	TripID     string           `json:"tripId,omitempty"`
	VehicleID  string           `json:"vehicleId"`
	Readings   mileage.Readings `json:"readings"`
	CurrencyID string           `json:"currencyId,omitempty"`
}

type CalculateResult struct {
	mileage.Metrics
	CurrencyID *string `json:"currencyId"`
	FuelUnit   string  `json:"fuelUnit,omitempty"`
	Message    string  `json:"message"`
}

type SaveResult struct {
	Trip      dbt.Trip `json:"trip"`
	Completed bool     `json:"completed"`
	Message   string   `json:"message"`
}

// Calculate applies the strict rules and derives the metrics without
// writing anything.
func (s *Service) Calculate(ctx context.Context, id *auth.Identity, form TripForm) (*CalculateResult, error) {
	userID, err := userOf(id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicleFor(ctx, form.VehicleID, userID)
	if err != nil {
		return nil, err
	}
	start, end, fuel, err := mileage.ValidateCalculate(vehicle, form.Readings)
	if err != nil {
		return nil, err
	}
	price, currencyID, err := s.priceFor(ctx, vehicle, form.Readings.ManualPrice, form.CurrencyID)
	if err != nil {
		return nil, err
	}
	res := &CalculateResult{
		Metrics:    mileage.Derive(start, end, fuel, price),
		CurrencyID: currencyID,
		Message:    MessageCalculated,
	}
	if vehicle.FuelType.Valid() {
		res.FuelUnit = vehicle.FuelType.Unit()
	}
	return res, nil
}

// Save stores the form as a COMPLETED trip when the readings allow it and
// as a DRAFT otherwise. Saving again with the returned trip id replaces the
// same row. Completed trips of Google users are backed up in the background.
func (s *Service) Save(ctx context.Context, id *auth.Identity, form TripForm) (*SaveResult, error) {
	userID, err := userOf(id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicleFor(ctx, form.VehicleID, userID)
	if err != nil {
		return nil, err
	}
	if err := mileage.ValidateDraft(vehicle, form.Readings); err != nil {
		return nil, err
	}
	price, currencyID, err := s.priceFor(ctx, vehicle, form.Readings.ManualPrice, form.CurrencyID)
	if err != nil {
		return nil, err
	}

	trip := dbt.Trip{
		ID:           form.TripID,
		VehicleID:    vehicle.ID,
		VehicleName:  vehicle.Name,
		StartMileage: form.Readings.StartMileage,
		EndMileage:   form.Readings.EndMileage,
		FuelFilled:   form.Readings.FuelFilled,
	}
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	mileage.Normalize(&trip, price, currencyID)

	if err := s.repo.AddTrip(ctx, &trip, userID); err != nil {
		return nil, err
	}
	s.backupIfGoogleUser(ctx, id, &trip)

	res := &SaveResult{Trip: trip, Completed: trip.Status == dbt.TripStatusCompleted, Message: MessageDraft}
	if res.Completed {
		res.Message = MessageSaved
	}
	return res, nil
}

func (s *Service) DeleteTrip(ctx context.Context, id *auth.Identity, tripID string) error {
	userID, err := userOf(id)
	if err != nil {
		return err
	}
	return s.repo.DeleteTrip(ctx, tripID, userID)
}

// backupIfGoogleUser uploads the trip list without blocking the save. Drafts
// are never uploaded.
func (s *Service) backupIfGoogleUser(ctx context.Context, id *auth.Identity, trip *dbt.Trip) {
	if !id.IsGoogle() || id.Email == "" || trip.Status != dbt.TripStatusCompleted || !s.repo.BackupEnabled() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.backups.Add(1)
	go func() {
		defer s.backups.Done()
		if !s.repo.BackupTripsToDrive(ctx, id.ID, id.Email) {
			logrus.WithField("trip", trip.ID).Warn("background backup failed")
		}
	}()
}

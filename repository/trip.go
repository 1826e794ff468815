package repository

import (
	"context"

	dbt "mileage/db/db"
	"mileage/mq/mq"
)

func (r *Repository) ListTrips(ctx context.Context, userID string) ([]dbt.Trip, error) {
	trips, err := r.db.ListTrips(ctx, userID)
	return trips, logFailure("list trips", userID, err)
}

func (r *Repository) GetTrip(ctx context.Context, id string, userID string) (*dbt.Trip, error) {
	return r.db.GetTrip(ctx, id, userID)
}

// AddTrip inserts the trip, or replaces the row with the same id.
func (r *Repository) AddTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	if err := r.db.UpsertTrip(ctx, trip, userID); err != nil {
		return logFailure("add trip", userID, err)
	}
	r.metrics.TripSaved(string(trip.Status))
	r.publish(mq.TableTrips, mq.ActionCreate, userID, trip.ID)
	return nil
}

func (r *Repository) UpdateTrip(ctx context.Context, trip *dbt.Trip, userID string) error {
	if err := r.db.UpdateTrip(ctx, trip, userID); err != nil {
		return logFailure("update trip", userID, err)
	}
	r.metrics.TripSaved(string(trip.Status))
	r.publish(mq.TableTrips, mq.ActionUpdate, userID, trip.ID)
	return nil
}

func (r *Repository) DeleteTrip(ctx context.Context, id string, userID string) error {
	if err := r.db.DeleteTrip(ctx, &dbt.Trip{ID: id}, userID); err != nil {
		return logFailure("delete trip", userID, err)
	}
	r.publish(mq.TableTrips, mq.ActionDelete, userID, id)
	return nil
}

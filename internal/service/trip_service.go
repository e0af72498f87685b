package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/cache"
	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// TripService drives the trip lifecycle and the vehicle handoff that goes
// with it: starting a trip claims the vehicle, finishing or cancelling one
// releases it and rolls the odometer forward.
type TripService struct {
	store    storage.Store
	notifier StatusNotifier
	summary  *cache.SummaryCache
	log      zerolog.Logger
}

func NewTripService(store storage.Store, notifier StatusNotifier, summary *cache.SummaryCache, log zerolog.Logger) *TripService {
	return &TripService{store: store, notifier: notifier, summary: summary, log: log}
}

type CreateTripInput struct {
	VehicleID     string
	DriverID      string
	StartAt       *string
	StartOdometer *int64
	Purpose       string
	Status        string
}

func (s *TripService) Create(ctx context.Context, input CreateTripInput) (*model.Trip, error) {
	vehicleID, err := uuid.Parse(input.VehicleID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	driverID, err := uuid.Parse(input.DriverID)
	if err != nil {
		return nil, ErrInvalidInput
	}

	status := model.TripStatusInProgress
	if input.Status != "" {
		status = model.TripStatus(input.Status)
		if status != model.TripStatusPlanned && status != model.TripStatusInProgress {
			return nil, fmt.Errorf("%w: trips start as planned or in_progress", ErrInvalidInput)
		}
	}

	startAt := time.Now().UTC()
	if input.StartAt != nil && *input.StartAt != "" {
		parsed, err := parseTimestamp(*input.StartAt)
		if err != nil {
			return nil, err
		}
		startAt = parsed
	}

	if input.StartOdometer != nil && *input.StartOdometer < 0 {
		return nil, fmt.Errorf("%w: odometer must not be negative", ErrInvalidInput)
	}

	trip := &model.Trip{
		VehicleID: vehicleID,
		DriverID:  driverID,
		StartAt:   startAt,
		Purpose:   input.Purpose,
		Status:    status,
	}

	var claimed *model.Vehicle
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetUser(ctx, driverID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: driver", ErrNotFound)
			}
			return mapStoreErr(err)
		}
		vehicle, err := tx.GetVehicleForUpdate(ctx, vehicleID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: vehicle", ErrNotFound)
			}
			return mapStoreErr(err)
		}

		if input.StartOdometer != nil {
			trip.StartOdometer = *input.StartOdometer
		} else {
			trip.StartOdometer = vehicle.Mileage
		}

		if trip.Status == model.TripStatusInProgress {
			if vehicle.Status != model.VehicleStatusAvailable {
				return fmt.Errorf("%w: vehicle not available", ErrConflict)
			}
			vehicle.Status = model.VehicleStatusInUse
			if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
				return mapStoreErr(err)
			}
			claimed = vehicle
		}

		if err := tx.CreateTrip(ctx, trip); err != nil {
			return mapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if claimed != nil && s.notifier != nil {
		s.notifier.BroadcastVehicleStatus(claimed)
	}
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return trip, nil
}

type UpdateTripInput struct {
	StartAt       *string
	EndAt         *string
	StartOdometer *int64
	EndOdometer   *int64
	FuelUsedL     *float64
	Purpose       *string
	Status        *string
}

func (s *TripService) Update(ctx context.Context, id string, input UpdateTripInput) (*model.Trip, error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	var startAt *time.Time
	if input.StartAt != nil && *input.StartAt != "" {
		parsed, err := parseTimestamp(*input.StartAt)
		if err != nil {
			return nil, err
		}
		startAt = &parsed
	}

	var endAt *time.Time
	if input.EndAt != nil && *input.EndAt != "" {
		parsed, err := parseTimestamp(*input.EndAt)
		if err != nil {
			return nil, err
		}
		endAt = &parsed
	}

	if input.StartOdometer != nil && *input.StartOdometer < 0 {
		return nil, fmt.Errorf("%w: odometer must not be negative", ErrInvalidInput)
	}
	if input.EndOdometer != nil && *input.EndOdometer < 0 {
		return nil, fmt.Errorf("%w: odometer must not be negative", ErrInvalidInput)
	}
	if input.FuelUsedL != nil && *input.FuelUsedL < 0 {
		return nil, fmt.Errorf("%w: fuel used must not be negative", ErrInvalidInput)
	}

	var next *model.TripStatus
	if input.Status != nil {
		st := model.TripStatus(*input.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown trip status %q", ErrInvalidInput, *input.Status)
		}
		next = &st
	}

	var trip *model.Trip
	var claimed, released *model.Vehicle
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		t, err := tx.GetTrip(ctx, tripID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		if next != nil && !t.Status.CanTransition(*next) {
			return fmt.Errorf("%w: cannot transition trip from %s to %s", ErrConflict, t.Status, *next)
		}

		if t.Status == model.TripStatusCompleted || t.Status == model.TripStatusCancelled {
			// Closed trips stay closed. Only bookkeeping fields may be
			// amended after the fact; times and odometers already fed
			// the vehicle record.
			if startAt != nil || endAt != nil || input.StartOdometer != nil || input.EndOdometer != nil {
				return fmt.Errorf("%w: trip is %s", ErrConflict, t.Status)
			}
			if input.Purpose != nil {
				t.Purpose = *input.Purpose
			}
			if input.FuelUsedL != nil {
				t.FuelUsedL = input.FuelUsedL
			}
			if err := tx.UpdateTrip(ctx, t); err != nil {
				return mapStoreErr(err)
			}
			trip = t
			return nil
		}

		if startAt != nil {
			t.StartAt = *startAt
		}
		if endAt != nil {
			t.EndAt = endAt
		}
		if input.StartOdometer != nil {
			t.StartOdometer = *input.StartOdometer
		}
		if input.EndOdometer != nil {
			t.EndOdometer = input.EndOdometer
		}
		if input.FuelUsedL != nil {
			t.FuelUsedL = input.FuelUsedL
		}
		if input.Purpose != nil {
			t.Purpose = *input.Purpose
		}
		if t.EndAt != nil && t.EndAt.Before(t.StartAt) {
			return fmt.Errorf("%w: end time before start time", ErrInvalidInput)
		}
		if t.EndOdometer != nil && *t.EndOdometer < t.StartOdometer {
			return fmt.Errorf("%w: end odometer below start odometer", ErrInvalidInput)
		}

		if next != nil && *next != t.Status {
			prev := t.Status
			switch *next {
			case model.TripStatusInProgress:
				vehicle, err := tx.GetVehicleForUpdate(ctx, t.VehicleID)
				if err != nil {
					return mapStoreErr(err)
				}
				if vehicle.Status != model.VehicleStatusAvailable {
					return fmt.Errorf("%w: vehicle not available", ErrConflict)
				}
				vehicle.Status = model.VehicleStatusInUse
				if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
					return mapStoreErr(err)
				}
				claimed = vehicle

			case model.TripStatusCompleted:
				if t.EndOdometer == nil {
					return fmt.Errorf("%w: end odometer is required to complete a trip", ErrInvalidInput)
				}
				if *t.EndOdometer < t.StartOdometer {
					return fmt.Errorf("%w: end odometer below start odometer", ErrInvalidInput)
				}
				if t.EndAt == nil {
					now := time.Now().UTC()
					t.EndAt = &now
				}
				vehicle, err := tx.GetVehicleForUpdate(ctx, t.VehicleID)
				if err != nil {
					return mapStoreErr(err)
				}
				// The closing odometer is ground truth for mileage even
				// when an operator reassigned the vehicle status mid-trip.
				if *t.EndOdometer > vehicle.Mileage {
					vehicle.Mileage = *t.EndOdometer
				}
				if vehicle.Status == model.VehicleStatusInUse {
					vehicle.Status = model.VehicleStatusAvailable
					released = vehicle
				}
				if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
					return mapStoreErr(err)
				}

			case model.TripStatusCancelled:
				if prev == model.TripStatusInProgress {
					vehicle, err := tx.GetVehicleForUpdate(ctx, t.VehicleID)
					if err != nil {
						return mapStoreErr(err)
					}
					if vehicle.Status == model.VehicleStatusInUse {
						vehicle.Status = model.VehicleStatusAvailable
						if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
							return mapStoreErr(err)
						}
						released = vehicle
					}
				}
			}
			t.Status = *next
		}

		if err := tx.UpdateTrip(ctx, t); err != nil {
			return mapStoreErr(err)
		}
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if claimed != nil {
			s.notifier.BroadcastVehicleStatus(claimed)
		}
		if released != nil {
			s.notifier.BroadcastVehicleStatus(released)
		}
	}
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return trip, nil
}

func (s *TripService) Delete(ctx context.Context, id string) error {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidInput
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		t, err := tx.GetTrip(ctx, tripID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}
		if t.Status == model.TripStatusInProgress {
			return fmt.Errorf("%w: trip is in progress", ErrConflict)
		}
		if err := tx.DeleteTrip(ctx, tripID); err != nil {
			return mapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return nil
}

func (s *TripService) Get(ctx context.Context, id string) (*model.Trip, error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return trip, nil
}

func (s *TripService) List(ctx context.Context, filter storage.TripFilter) ([]model.Trip, error) {
	trips, err := s.store.ListTrips(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return trips, nil
}

func (s *TripService) ListActive(ctx context.Context) ([]model.Trip, error) {
	active := model.TripStatusInProgress
	trips, err := s.store.ListTrips(ctx, storage.TripFilter{Status: &active})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return trips, nil
}

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

// MaintenanceService manages service records. Opening a record pulls an
// available vehicle into the shop, completing one hands it back. Vehicle
// mileage is never written here; the odometer reading on a record is
// bookkeeping only.
type MaintenanceService struct {
	store    storage.Store
	notifier StatusNotifier
	summary  *cache.SummaryCache
	log      zerolog.Logger
}

func NewMaintenanceService(store storage.Store, notifier StatusNotifier, summary *cache.SummaryCache, log zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{store: store, notifier: notifier, summary: summary, log: log}
}

type CreateMaintenanceInput struct {
	VehicleID       string
	Type            string
	Description     string
	Date            string
	Cost            *float64
	OdometerReading *int64
	Status          string
	Notes           string
}

func (s *MaintenanceService) Create(ctx context.Context, input CreateMaintenanceInput) (*model.MaintenanceRecord, error) {
	vehicleID, err := uuid.Parse(input.VehicleID)
	if err != nil {
		return nil, ErrInvalidInput
	}

	mtype := model.MaintenanceType(input.Type)
	if !mtype.Valid() {
		return nil, fmt.Errorf("%w: unknown maintenance type %q", ErrInvalidInput, input.Type)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if input.Date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	date, err := parseTimestamp(input.Date)
	if err != nil {
		return nil, err
	}

	status := model.MaintenanceStatusPending
	if input.Status != "" {
		status = model.MaintenanceStatus(input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown maintenance status %q", ErrInvalidInput, input.Status)
		}
	}
	if input.Cost != nil && *input.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}
	if input.OdometerReading != nil && *input.OdometerReading < 0 {
		return nil, fmt.Errorf("%w: odometer must not be negative", ErrInvalidInput)
	}

	record := &model.MaintenanceRecord{
		VehicleID:       vehicleID,
		Type:            mtype,
		Description:     input.Description,
		Date:            date,
		Cost:            input.Cost,
		OdometerReading: input.OdometerReading,
		Status:          status,
		Notes:           input.Notes,
	}
	if status == model.MaintenanceStatusCompleted {
		// Historical import: the work is already done, dated as given.
		record.CompletedAt = &date
	}

	var flipped *model.Vehicle
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		vehicle, err := tx.GetVehicleForUpdate(ctx, vehicleID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: vehicle", ErrNotFound)
			}
			return mapStoreErr(err)
		}

		if record.Status != model.MaintenanceStatusCompleted && vehicle.Status == model.VehicleStatusAvailable {
			vehicle.Status = model.VehicleStatusMaintenance
			if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
				return mapStoreErr(err)
			}
			flipped = vehicle
		}

		if err := tx.CreateMaintenance(ctx, record); err != nil {
			return mapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if flipped != nil && s.notifier != nil {
		s.notifier.BroadcastVehicleStatus(flipped)
	}
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return record, nil
}

type UpdateMaintenanceInput struct {
	Type            *string
	Description     *string
	Date            *string
	Cost            *float64
	OdometerReading *int64
	Status          *string
	CompletedAt     *string
	Notes           *string
}

func (s *MaintenanceService) Update(ctx context.Context, id string, input UpdateMaintenanceInput) (*model.MaintenanceRecord, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	var mtype *model.MaintenanceType
	if input.Type != nil {
		mt := model.MaintenanceType(*input.Type)
		if !mt.Valid() {
			return nil, fmt.Errorf("%w: unknown maintenance type %q", ErrInvalidInput, *input.Type)
		}
		mtype = &mt
	}

	var next *model.MaintenanceStatus
	if input.Status != nil {
		st := model.MaintenanceStatus(*input.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown maintenance status %q", ErrInvalidInput, *input.Status)
		}
		next = &st
	}

	var date *time.Time
	if input.Date != nil && *input.Date != "" {
		parsed, err := parseTimestamp(*input.Date)
		if err != nil {
			return nil, err
		}
		date = &parsed
	}

	var completedAt *time.Time
	if input.CompletedAt != nil && *input.CompletedAt != "" {
		parsed, err := parseTimestamp(*input.CompletedAt)
		if err != nil {
			return nil, err
		}
		completedAt = &parsed
	}

	if input.Cost != nil && *input.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}
	if input.OdometerReading != nil && *input.OdometerReading < 0 {
		return nil, fmt.Errorf("%w: odometer must not be negative", ErrInvalidInput)
	}

	var record *model.MaintenanceRecord
	var flipped, released *model.Vehicle
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		r, err := tx.GetMaintenance(ctx, recordID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		if next != nil && !r.Status.CanTransition(*next) {
			return fmt.Errorf("%w: cannot transition maintenance from %s to %s", ErrConflict, r.Status, *next)
		}

		if r.Status == model.MaintenanceStatusCompleted {
			// Completed records accept only cost and note corrections.
			if mtype != nil || input.Description != nil || date != nil || input.OdometerReading != nil || completedAt != nil {
				return fmt.Errorf("%w: maintenance record is completed", ErrConflict)
			}
			if input.Cost != nil {
				r.Cost = input.Cost
			}
			if input.Notes != nil {
				r.Notes = *input.Notes
			}
			if err := tx.UpdateMaintenance(ctx, r); err != nil {
				return mapStoreErr(err)
			}
			record = r
			return nil
		}

		if mtype != nil {
			r.Type = *mtype
		}
		if input.Description != nil {
			if *input.Description == "" {
				return fmt.Errorf("%w: description is required", ErrInvalidInput)
			}
			r.Description = *input.Description
		}
		if date != nil {
			r.Date = *date
		}
		if input.Cost != nil {
			r.Cost = input.Cost
		}
		if input.OdometerReading != nil {
			r.OdometerReading = input.OdometerReading
		}
		if input.Notes != nil {
			r.Notes = *input.Notes
		}

		if next != nil && *next != r.Status {
			switch *next {
			case model.MaintenanceStatusInProgress:
				vehicle, err := tx.GetVehicleForUpdate(ctx, r.VehicleID)
				if err != nil {
					return mapStoreErr(err)
				}
				if vehicle.Status == model.VehicleStatusAvailable {
					vehicle.Status = model.VehicleStatusMaintenance
					if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
						return mapStoreErr(err)
					}
					flipped = vehicle
				}

			case model.MaintenanceStatusCompleted:
				if completedAt != nil {
					r.CompletedAt = completedAt
				} else {
					now := time.Now().UTC()
					r.CompletedAt = &now
				}
				vehicle, err := tx.GetVehicleForUpdate(ctx, r.VehicleID)
				if err != nil {
					return mapStoreErr(err)
				}
				if vehicle.Status == model.VehicleStatusMaintenance {
					vehicle.Status = model.VehicleStatusAvailable
					if err := tx.UpdateVehicle(ctx, vehicle); err != nil {
						return mapStoreErr(err)
					}
					released = vehicle
				}
			}
			r.Status = *next
		}

		if err := tx.UpdateMaintenance(ctx, r); err != nil {
			return mapStoreErr(err)
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if flipped != nil {
			s.notifier.BroadcastVehicleStatus(flipped)
		}
		if released != nil {
			s.notifier.BroadcastVehicleStatus(released)
		}
	}
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return record, nil
}

func (s *MaintenanceService) Delete(ctx context.Context, id string) error {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidInput
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		r, err := tx.GetMaintenance(ctx, recordID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}
		if r.Status == model.MaintenanceStatusInProgress {
			return fmt.Errorf("%w: maintenance is in progress", ErrConflict)
		}
		if err := tx.DeleteMaintenance(ctx, recordID); err != nil {
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

func (s *MaintenanceService) Get(ctx context.Context, id string) (*model.MaintenanceRecord, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	record, err := s.store.GetMaintenance(ctx, recordID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return record, nil
}

func (s *MaintenanceService) List(ctx context.Context, filter storage.MaintenanceFilter) ([]model.MaintenanceRecord, error) {
	records, err := s.store.ListMaintenance(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return records, nil
}

func (s *MaintenanceService) ListUpcoming(ctx context.Context) ([]model.MaintenanceRecord, error) {
	records, err := s.store.ListUpcomingMaintenance(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return records, nil
}

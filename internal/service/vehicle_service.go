package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/cache"
	"fleet-service/internal/client"
	"fleet-service/internal/model"
	"fleet-service/internal/storage"
	"fleet-service/internal/utils"
)

// VehicleService owns the vehicle registry and the vehicle status field.
// Trips, maintenance and bookings flip that field only through their own
// services; direct writes here are the administrative override path.
type VehicleService struct {
	store    storage.Store
	vin      *client.VINClient
	notifier StatusNotifier
	summary  *cache.SummaryCache
	log      zerolog.Logger
}

func NewVehicleService(store storage.Store, vin *client.VINClient, notifier StatusNotifier, summary *cache.SummaryCache, log zerolog.Logger) *VehicleService {
	return &VehicleService{store: store, vin: vin, notifier: notifier, summary: summary, log: log}
}

type CreateVehicleInput struct {
	Make             string
	Model            string
	Year             int
	PlateNumber      string
	VIN              *string
	Color            string
	FuelType         string
	Status           string
	Mileage          *int64
	AssignedDriverID *string
	PurchaseDate     *string
	Notes            string
}

func (s *VehicleService) Create(ctx context.Context, input CreateVehicleInput) (*model.Vehicle, error) {
	plate := utils.NormalizePlate(input.PlateNumber)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate number is required", ErrInvalidInput)
	}

	fuelType := model.FuelType(input.FuelType)
	if !fuelType.Valid() {
		return nil, fmt.Errorf("%w: unknown fuel type %q", ErrInvalidInput, input.FuelType)
	}

	status := model.VehicleStatusAvailable
	if input.Status != "" {
		status = model.VehicleStatus(input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown vehicle status %q", ErrInvalidInput, input.Status)
		}
	}

	var vin *string
	if input.VIN != nil && *input.VIN != "" {
		normalized := utils.NormalizeVIN(*input.VIN)
		if len(normalized) != 17 {
			return nil, fmt.Errorf("%w: vin must be 17 characters", ErrInvalidInput)
		}
		vin = &normalized
	}

	var mileage int64
	if input.Mileage != nil {
		if *input.Mileage < 0 {
			return nil, fmt.Errorf("%w: mileage must not be negative", ErrInvalidInput)
		}
		mileage = *input.Mileage
	}

	var driverID *uuid.UUID
	if input.AssignedDriverID != nil && *input.AssignedDriverID != "" {
		parsed, err := uuid.Parse(*input.AssignedDriverID)
		if err != nil {
			return nil, ErrInvalidInput
		}
		driverID = &parsed
	}

	var purchaseDate *time.Time
	if input.PurchaseDate != nil && *input.PurchaseDate != "" {
		parsed, err := parseTimestamp(*input.PurchaseDate)
		if err != nil {
			return nil, err
		}
		purchaseDate = &parsed
	}

	vehicle := &model.Vehicle{
		Make:             input.Make,
		Model:            input.Model,
		Year:             input.Year,
		PlateNumber:      plate,
		VIN:              vin,
		Color:            input.Color,
		FuelType:         fuelType,
		Status:           status,
		Mileage:          mileage,
		AssignedDriverID: driverID,
		PurchaseDate:     purchaseDate,
		Notes:            input.Notes,
	}

	if vehicle.VIN != nil && s.vin != nil && (vehicle.Make == "" || vehicle.Model == "" || vehicle.Year == 0) {
		s.enrichFromVIN(ctx, vehicle)
	}

	if vehicle.Make == "" || vehicle.Model == "" {
		return nil, fmt.Errorf("%w: make and model are required", ErrInvalidInput)
	}
	if vehicle.Year < 1900 || vehicle.Year > time.Now().Year()+1 {
		return nil, fmt.Errorf("%w: implausible year %d", ErrInvalidInput, vehicle.Year)
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		if driverID != nil {
			if _, err := tx.GetUser(ctx, *driverID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("%w: assigned driver", ErrNotFound)
				}
				return mapStoreErr(err)
			}
		}
		if err := tx.CreateVehicle(ctx, vehicle); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: plate number or vin already registered", ErrConflict)
			}
			return mapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return vehicle, nil
}

// enrichFromVIN fills make, model and year from the decoder when the
// caller left them blank. Decoder failures are logged and ignored so a
// flaky upstream never blocks registration.
func (s *VehicleService) enrichFromVIN(ctx context.Context, vehicle *model.Vehicle) {
	info, err := s.vin.Decode(ctx, *vehicle.VIN)
	if err != nil {
		s.log.Warn().Err(err).Str("vin", *vehicle.VIN).Msg("vin decode failed")
		return
	}
	if vehicle.Make == "" {
		vehicle.Make = info.Make
	}
	if vehicle.Model == "" {
		vehicle.Model = info.Model
	}
	if vehicle.Year == 0 {
		vehicle.Year = info.Year
	}
}

type UpdateVehicleInput struct {
	Make             *string
	Model            *string
	Year             *int
	PlateNumber      *string
	VIN              *string
	Color            *string
	FuelType         *string
	Status           *string
	Mileage          *int64
	AssignedDriverID *string
	PurchaseDate     *string
	Notes            *string

	// ForceMileage lets administrators correct an inflated odometer.
	// Without it mileage may only grow.
	ForceMileage bool
}

func (s *VehicleService) Update(ctx context.Context, id string, input UpdateVehicleInput) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	var fuelType *model.FuelType
	if input.FuelType != nil {
		ft := model.FuelType(*input.FuelType)
		if !ft.Valid() {
			return nil, fmt.Errorf("%w: unknown fuel type %q", ErrInvalidInput, *input.FuelType)
		}
		fuelType = &ft
	}

	var status *model.VehicleStatus
	if input.Status != nil {
		st := model.VehicleStatus(*input.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown vehicle status %q", ErrInvalidInput, *input.Status)
		}
		status = &st
	}

	var plate *string
	if input.PlateNumber != nil {
		normalized := utils.NormalizePlate(*input.PlateNumber)
		if normalized == "" {
			return nil, fmt.Errorf("%w: plate number is required", ErrInvalidInput)
		}
		plate = &normalized
	}

	clearVIN := false
	var vin *string
	if input.VIN != nil {
		if *input.VIN == "" {
			clearVIN = true
		} else {
			normalized := utils.NormalizeVIN(*input.VIN)
			if len(normalized) != 17 {
				return nil, fmt.Errorf("%w: vin must be 17 characters", ErrInvalidInput)
			}
			vin = &normalized
		}
	}

	clearDriver := false
	var driverID *uuid.UUID
	if input.AssignedDriverID != nil {
		if *input.AssignedDriverID == "" {
			clearDriver = true
		} else {
			parsed, err := uuid.Parse(*input.AssignedDriverID)
			if err != nil {
				return nil, ErrInvalidInput
			}
			driverID = &parsed
		}
	}

	var purchaseDate *time.Time
	if input.PurchaseDate != nil && *input.PurchaseDate != "" {
		parsed, err := parseTimestamp(*input.PurchaseDate)
		if err != nil {
			return nil, err
		}
		purchaseDate = &parsed
	}

	if input.Mileage != nil && *input.Mileage < 0 {
		return nil, fmt.Errorf("%w: mileage must not be negative", ErrInvalidInput)
	}
	if input.Year != nil && (*input.Year < 1900 || *input.Year > time.Now().Year()+1) {
		return nil, fmt.Errorf("%w: implausible year %d", ErrInvalidInput, *input.Year)
	}

	var vehicle *model.Vehicle
	statusChanged := false
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		v, err := tx.GetVehicleForUpdate(ctx, vehicleID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		if input.Make != nil {
			v.Make = *input.Make
		}
		if input.Model != nil {
			v.Model = *input.Model
		}
		if input.Year != nil {
			v.Year = *input.Year
		}
		if plate != nil {
			v.PlateNumber = *plate
		}
		if clearVIN {
			v.VIN = nil
		} else if vin != nil {
			v.VIN = vin
		}
		if input.Color != nil {
			v.Color = *input.Color
		}
		if fuelType != nil {
			v.FuelType = *fuelType
		}
		if input.Notes != nil {
			v.Notes = *input.Notes
		}
		if purchaseDate != nil {
			v.PurchaseDate = purchaseDate
		}

		if clearDriver {
			v.AssignedDriverID = nil
		} else if driverID != nil {
			if _, err := tx.GetUser(ctx, *driverID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("%w: assigned driver", ErrNotFound)
				}
				return mapStoreErr(err)
			}
			v.AssignedDriverID = driverID
		}

		if input.Mileage != nil {
			if *input.Mileage < v.Mileage && !input.ForceMileage {
				return fmt.Errorf("%w: mileage cannot decrease", ErrInvalidInput)
			}
			v.Mileage = *input.Mileage
		}

		if status != nil && *status != v.Status {
			s.log.Warn().
				Str("vehicle_id", v.ID.String()).
				Str("from", string(v.Status)).
				Str("to", string(*status)).
				Msg("vehicle status overridden")
			v.Status = *status
			statusChanged = true
		}

		if err := tx.UpdateVehicle(ctx, v); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: plate number or vin already registered", ErrConflict)
			}
			return mapStoreErr(err)
		}
		vehicle = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusChanged && s.notifier != nil {
		s.notifier.BroadcastVehicleStatus(vehicle)
	}
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return vehicle, nil
}

func (s *VehicleService) Delete(ctx context.Context, id string) error {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidInput
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetVehicle(ctx, vehicleID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		trips, err := tx.CountTrips(ctx, storage.TripFilter{VehicleID: &vehicleID})
		if err != nil {
			return mapStoreErr(err)
		}
		records, err := tx.CountMaintenance(ctx, storage.MaintenanceFilter{VehicleID: &vehicleID})
		if err != nil {
			return mapStoreErr(err)
		}
		bookings, err := tx.CountBookings(ctx, storage.BookingFilter{VehicleID: &vehicleID})
		if err != nil {
			return mapStoreErr(err)
		}
		if trips > 0 || records > 0 || bookings > 0 {
			return fmt.Errorf("%w: vehicle has trips, maintenance records or bookings", ErrConflict)
		}

		if err := tx.DeleteVehicle(ctx, vehicleID); err != nil {
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

func (s *VehicleService) Get(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	vehicle, err := s.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return vehicle, nil
}

func (s *VehicleService) GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	normalized := utils.NormalizePlate(plate)
	if normalized == "" {
		return nil, ErrInvalidInput
	}
	vehicle, err := s.store.GetVehicleByPlate(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return vehicle, nil
}

func (s *VehicleService) List(ctx context.Context, filter storage.VehicleFilter) ([]model.Vehicle, error) {
	if filter.Plate != nil {
		normalized := utils.NormalizePlate(*filter.Plate)
		filter.Plate = &normalized
	}
	vehicles, err := s.store.ListVehicles(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return vehicles, nil
}

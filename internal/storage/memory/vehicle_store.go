package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.vehicles {
		if existing.PlateNumber == vehicle.PlateNumber {
			return storage.ErrDuplicate
		}
		if vehicle.VIN != nil && existing.VIN != nil && *existing.VIN == *vehicle.VIN {
			return storage.ErrDuplicate
		}
	}

	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	s.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (s *Store) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &vehicle, nil
}

// GetVehicleForUpdate is a plain read here; exclusivity comes from the
// store-wide WithTx lock.
func (s *Store) GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	return s.GetVehicle(ctx, id)
}

func (s *Store) GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vehicle := range s.vehicles {
		if vehicle.PlateNumber == plate {
			v := vehicle
			return &v, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[vehicle.ID]; !ok {
		return storage.ErrNotFound
	}
	for id, existing := range s.vehicles {
		if id == vehicle.ID {
			continue
		}
		if existing.PlateNumber == vehicle.PlateNumber {
			return storage.ErrDuplicate
		}
		if vehicle.VIN != nil && existing.VIN != nil && *existing.VIN == *vehicle.VIN {
			return storage.ErrDuplicate
		}
	}

	vehicle.UpdatedAt = time.Now()
	s.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.vehicles, id)
	return nil
}

func (s *Store) ListVehicles(ctx context.Context, filter storage.VehicleFilter) ([]model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]model.Vehicle, 0, len(s.vehicles))
	for _, vehicle := range s.vehicles {
		if vehicleMatches(vehicle, filter) {
			vehicles = append(vehicles, vehicle)
		}
	}
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].PlateNumber < vehicles[j].PlateNumber
	})
	return vehicles, nil
}

func (s *Store) CountVehiclesByStatus(ctx context.Context) (map[model.VehicleStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.VehicleStatus]int64)
	for _, vehicle := range s.vehicles {
		counts[vehicle.Status]++
	}
	return counts, nil
}

func vehicleMatches(vehicle model.Vehicle, filter storage.VehicleFilter) bool {
	if filter.Status != nil && vehicle.Status != *filter.Status {
		return false
	}
	if filter.FuelType != nil && vehicle.FuelType != *filter.FuelType {
		return false
	}
	if filter.AssignedDriverID != nil {
		if vehicle.AssignedDriverID == nil || *vehicle.AssignedDriverID != *filter.AssignedDriverID {
			return false
		}
	}
	if filter.Plate != nil && !strings.Contains(vehicle.PlateNumber, *filter.Plate) {
		return false
	}
	return true
}

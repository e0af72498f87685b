package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateMaintenance(ctx context.Context, record *model.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.maintenance[record.ID] = *record
	return nil
}

func (s *Store) GetMaintenance(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.maintenance[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

func (s *Store) UpdateMaintenance(ctx context.Context, record *model.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maintenance[record.ID]; !ok {
		return storage.ErrNotFound
	}
	record.UpdatedAt = time.Now()
	s.maintenance[record.ID] = *record
	return nil
}

func (s *Store) DeleteMaintenance(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maintenance[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.maintenance, id)
	return nil
}

func (s *Store) ListMaintenance(ctx context.Context, filter storage.MaintenanceFilter) ([]model.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.MaintenanceRecord, 0, len(s.maintenance))
	for _, record := range s.maintenance {
		if maintenanceMatches(record, filter) {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}

func (s *Store) ListUpcomingMaintenance(ctx context.Context) ([]model.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.MaintenanceRecord, 0)
	for _, record := range s.maintenance {
		if record.Status != model.MaintenanceStatusCompleted {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

func (s *Store) CountMaintenance(ctx context.Context, filter storage.MaintenanceFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.maintenance {
		if maintenanceMatches(record, filter) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountOpenMaintenance(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.maintenance {
		if record.Status != model.MaintenanceStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (s *Store) SumMaintenanceCost(ctx context.Context, since time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, record := range s.maintenance {
		if record.Cost == nil || record.Date.Before(since) {
			continue
		}
		total += *record.Cost
	}
	return total, nil
}

func maintenanceMatches(record model.MaintenanceRecord, filter storage.MaintenanceFilter) bool {
	if filter.VehicleID != nil && record.VehicleID != *filter.VehicleID {
		return false
	}
	if filter.Status != nil && record.Status != *filter.Status {
		return false
	}
	if filter.Type != nil && record.Type != *filter.Type {
		return false
	}
	if filter.DateFrom != nil && record.Date.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && record.Date.After(*filter.DateTo) {
		return false
	}
	return true
}

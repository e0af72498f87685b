package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateTrip(ctx context.Context, trip *model.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	s.trips[trip.ID] = *trip
	return nil
}

func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (*model.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &trip, nil
}

func (s *Store) UpdateTrip(ctx context.Context, trip *model.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[trip.ID]; !ok {
		return storage.ErrNotFound
	}
	trip.UpdatedAt = time.Now()
	s.trips[trip.ID] = *trip
	return nil
}

func (s *Store) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.trips, id)
	return nil
}

func (s *Store) ListTrips(ctx context.Context, filter storage.TripFilter) ([]model.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := make([]model.Trip, 0, len(s.trips))
	for _, trip := range s.trips {
		if tripMatches(trip, filter) {
			trips = append(trips, trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].StartAt.After(trips[j].StartAt)
	})
	return trips, nil
}

func (s *Store) CountTrips(ctx context.Context, filter storage.TripFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, trip := range s.trips {
		if tripMatches(trip, filter) {
			count++
		}
	}
	return count, nil
}

func (s *Store) SumTripDistance(ctx context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, trip := range s.trips {
		if trip.Status != model.TripStatusCompleted || trip.EndOdometer == nil {
			continue
		}
		if trip.StartAt.Before(since) {
			continue
		}
		total += *trip.EndOdometer - trip.StartOdometer
	}
	return total, nil
}

func tripMatches(trip model.Trip, filter storage.TripFilter) bool {
	if filter.VehicleID != nil && trip.VehicleID != *filter.VehicleID {
		return false
	}
	if filter.DriverID != nil && trip.DriverID != *filter.DriverID {
		return false
	}
	if filter.Status != nil && trip.Status != *filter.Status {
		return false
	}
	if filter.StartFrom != nil && trip.StartAt.Before(*filter.StartFrom) {
		return false
	}
	if filter.StartTo != nil && trip.StartAt.After(*filter.StartTo) {
		return false
	}
	return true
}

package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateTrip(ctx context.Context, trip *model.Trip) error {
	return translate(s.db.WithContext(ctx).Create(trip).Error)
}

func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (*model.Trip, error) {
	var trip model.Trip
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error
	if err != nil {
		return nil, translate(err)
	}
	return &trip, nil
}

func (s *Store) UpdateTrip(ctx context.Context, trip *model.Trip) error {
	return translate(s.db.WithContext(ctx).Save(trip).Error)
}

func (s *Store) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Trip{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListTrips(ctx context.Context, filter storage.TripFilter) ([]model.Trip, error) {
	var trips []model.Trip
	err := s.applyTripFilter(ctx, filter).Order("start_at DESC").Find(&trips).Error
	return trips, translate(err)
}

func (s *Store) CountTrips(ctx context.Context, filter storage.TripFilter) (int64, error) {
	var count int64
	err := s.applyTripFilter(ctx, filter).Count(&count).Error
	return count, translate(err)
}

func (s *Store) SumTripDistance(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.Trip{}).
		Select("COALESCE(SUM(end_odometer - start_odometer), 0)").
		Where("status = ? AND start_at >= ? AND end_odometer IS NOT NULL", model.TripStatusCompleted, since).
		Scan(&total).Error
	return total, translate(err)
}

func (s *Store) applyTripFilter(ctx context.Context, filter storage.TripFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.Trip{})
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartFrom != nil {
		query = query.Where("start_at >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("start_at <= ?", *filter.StartTo)
	}
	return query
}

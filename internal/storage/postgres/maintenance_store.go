package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateMaintenance(ctx context.Context, record *model.MaintenanceRecord) error {
	return translate(s.db.WithContext(ctx).Create(record).Error)
}

func (s *Store) GetMaintenance(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error) {
	var record model.MaintenanceRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func (s *Store) UpdateMaintenance(ctx context.Context, record *model.MaintenanceRecord) error {
	return translate(s.db.WithContext(ctx).Save(record).Error)
}

func (s *Store) DeleteMaintenance(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MaintenanceRecord{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListMaintenance(ctx context.Context, filter storage.MaintenanceFilter) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := s.applyMaintenanceFilter(ctx, filter).Order("date DESC").Find(&records).Error
	return records, translate(err)
}

func (s *Store) ListUpcomingMaintenance(ctx context.Context) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := s.db.WithContext(ctx).
		Where("status <> ?", model.MaintenanceStatusCompleted).
		Order("date ASC").
		Find(&records).Error
	return records, translate(err)
}

func (s *Store) CountMaintenance(ctx context.Context, filter storage.MaintenanceFilter) (int64, error) {
	var count int64
	err := s.applyMaintenanceFilter(ctx, filter).Count(&count).Error
	return count, translate(err)
}

func (s *Store) CountOpenMaintenance(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.MaintenanceRecord{}).
		Where("status <> ?", model.MaintenanceStatusCompleted).
		Count(&count).Error
	return count, translate(err)
}

func (s *Store) SumMaintenanceCost(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).
		Model(&model.MaintenanceRecord{}).
		Select("COALESCE(SUM(cost), 0)").
		Where("date >= ? AND cost IS NOT NULL", since).
		Scan(&total).Error
	return total, translate(err)
}

func (s *Store) applyMaintenanceFilter(ctx context.Context, filter storage.MaintenanceFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.MaintenanceRecord{})
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", *filter.DateTo)
	}
	return query
}

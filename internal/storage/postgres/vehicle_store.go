package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return translate(s.db.WithContext(ctx).Create(vehicle).Error)
}

func (s *Store) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

func (s *Store) GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&vehicle).Error
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

func (s *Store) GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).Where("plate_number = ?", plate).First(&vehicle).Error
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return translate(s.db.WithContext(ctx).Save(vehicle).Error)
}

func (s *Store) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Vehicle{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListVehicles(ctx context.Context, filter storage.VehicleFilter) ([]model.Vehicle, error) {
	query := s.db.WithContext(ctx).Model(&model.Vehicle{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FuelType != nil {
		query = query.Where("fuel_type = ?", *filter.FuelType)
	}
	if filter.AssignedDriverID != nil {
		query = query.Where("assigned_driver_id = ?", *filter.AssignedDriverID)
	}
	if filter.Plate != nil {
		query = query.Where("plate_number LIKE ?", "%"+*filter.Plate+"%")
	}

	var vehicles []model.Vehicle
	err := query.Order("plate_number ASC").Find(&vehicles).Error
	return vehicles, translate(err)
}

func (s *Store) CountVehiclesByStatus(ctx context.Context) (map[model.VehicleStatus]int64, error) {
	var rows []struct {
		Status model.VehicleStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&model.Vehicle{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[model.VehicleStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

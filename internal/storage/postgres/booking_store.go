package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateBooking(ctx context.Context, booking *model.Booking) error {
	return translate(s.db.WithContext(ctx).Create(booking).Error)
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *Store) UpdateBooking(ctx context.Context, booking *model.Booking) error {
	// created_at is server-assigned and immutable
	return translate(s.db.WithContext(ctx).Omit("created_at").Save(booking).Error)
}

func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Booking{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListBookings(ctx context.Context, filter storage.BookingFilter) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.applyBookingFilter(ctx, filter).Order("start_at DESC").Find(&bookings).Error
	return bookings, translate(err)
}

func (s *Store) CountBookings(ctx context.Context, filter storage.BookingFilter) (int64, error) {
	var count int64
	err := s.applyBookingFilter(ctx, filter).Count(&count).Error
	return count, translate(err)
}

func (s *Store) applyBookingFilter(ctx context.Context, filter storage.BookingFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.Booking{})
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
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

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func (s *Store) CreateBooking(ctx context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &booking, nil
}

func (s *Store) UpdateBooking(ctx context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[booking.ID]
	if !ok {
		return storage.ErrNotFound
	}
	// created_at is server-assigned and immutable
	booking.CreatedAt = current.CreatedAt
	booking.UpdatedAt = time.Now()
	s.bookings[booking.ID] = *booking
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) ListBookings(ctx context.Context, filter storage.BookingFilter) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]model.Booking, 0, len(s.bookings))
	for _, booking := range s.bookings {
		if bookingMatches(booking, filter) {
			bookings = append(bookings, booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartAt.After(bookings[j].StartAt)
	})
	return bookings, nil
}

func (s *Store) CountBookings(ctx context.Context, filter storage.BookingFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, booking := range s.bookings {
		if bookingMatches(booking, filter) {
			count++
		}
	}
	return count, nil
}

func bookingMatches(booking model.Booking, filter storage.BookingFilter) bool {
	if filter.VehicleID != nil && booking.VehicleID != *filter.VehicleID {
		return false
	}
	if filter.UserID != nil && booking.UserID != *filter.UserID {
		return false
	}
	if filter.Status != nil && booking.Status != *filter.Status {
		return false
	}
	if filter.StartFrom != nil && booking.StartAt.Before(*filter.StartFrom) {
		return false
	}
	if filter.StartTo != nil && booking.StartAt.After(*filter.StartTo) {
		return false
	}
	return true
}

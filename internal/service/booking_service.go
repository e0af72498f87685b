package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/cache"
	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// BookingService manages reservations. A booking is a claim on a future
// slot, not occupancy: it never changes the vehicle status. The vehicle
// only has to be available at the moment the booking is placed.
type BookingService struct {
	store   storage.Store
	summary *cache.SummaryCache
	log     zerolog.Logger
}

func NewBookingService(store storage.Store, summary *cache.SummaryCache, log zerolog.Logger) *BookingService {
	return &BookingService{store: store, summary: summary, log: log}
}

type CreateBookingInput struct {
	VehicleID string
	UserID    string
	StartAt   string
	EndAt     string
	Purpose   string
	Status    string
}

func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*model.Booking, error) {
	vehicleID, err := uuid.Parse(input.VehicleID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return nil, ErrInvalidInput
	}

	if input.StartAt == "" || input.EndAt == "" {
		return nil, fmt.Errorf("%w: start and end time are required", ErrInvalidInput)
	}
	startAt, err := parseTimestamp(input.StartAt)
	if err != nil {
		return nil, err
	}
	endAt, err := parseTimestamp(input.EndAt)
	if err != nil {
		return nil, err
	}
	if endAt.Before(startAt) {
		return nil, fmt.Errorf("%w: end time before start time", ErrInvalidInput)
	}

	status := model.BookingStatusPending
	if input.Status != "" {
		status = model.BookingStatus(input.Status)
		if status != model.BookingStatusPending && status != model.BookingStatusApproved {
			return nil, fmt.Errorf("%w: bookings start as pending or approved", ErrInvalidInput)
		}
	}

	booking := &model.Booking{
		VehicleID: vehicleID,
		UserID:    userID,
		StartAt:   startAt,
		EndAt:     endAt,
		Purpose:   input.Purpose,
		Status:    status,
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: user", ErrNotFound)
			}
			return mapStoreErr(err)
		}
		vehicle, err := tx.GetVehicleForUpdate(ctx, vehicleID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: vehicle", ErrNotFound)
			}
			return mapStoreErr(err)
		}
		if vehicle.Status != model.VehicleStatusAvailable {
			return fmt.Errorf("%w: vehicle not available", ErrConflict)
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
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
	return booking, nil
}

type UpdateBookingInput struct {
	StartAt *string
	EndAt   *string
	Purpose *string
	Status  *string
}

func (s *BookingService) Update(ctx context.Context, id string, input UpdateBookingInput) (*model.Booking, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}

	var startAt, endAt *string
	if input.StartAt != nil && *input.StartAt != "" {
		startAt = input.StartAt
	}
	if input.EndAt != nil && *input.EndAt != "" {
		endAt = input.EndAt
	}

	var next *model.BookingStatus
	if input.Status != nil {
		st := model.BookingStatus(*input.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, *input.Status)
		}
		next = &st
	}

	var booking *model.Booking
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return mapStoreErr(err)
		}

		if next != nil && !b.Status.CanTransition(*next) {
			return fmt.Errorf("%w: cannot transition booking from %s to %s", ErrConflict, b.Status, *next)
		}

		terminal := b.Status == model.BookingStatusDeclined ||
			b.Status == model.BookingStatusCancelled ||
			b.Status == model.BookingStatusCompleted
		if terminal && (startAt != nil || endAt != nil) {
			return fmt.Errorf("%w: booking is %s", ErrConflict, b.Status)
		}

		if startAt != nil {
			parsed, err := parseTimestamp(*startAt)
			if err != nil {
				return err
			}
			b.StartAt = parsed
		}
		if endAt != nil {
			parsed, err := parseTimestamp(*endAt)
			if err != nil {
				return err
			}
			b.EndAt = parsed
		}
		if b.EndAt.Before(b.StartAt) {
			return fmt.Errorf("%w: end time before start time", ErrInvalidInput)
		}
		if input.Purpose != nil {
			b.Purpose = *input.Purpose
		}
		if next != nil {
			b.Status = *next
		}

		if err := tx.UpdateBooking(ctx, b); err != nil {
			return mapStoreErr(err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	return booking, nil
}

func (s *BookingService) Delete(ctx context.Context, id string) error {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidInput
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.DeleteBooking(ctx, bookingID); err != nil {
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

func (s *BookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidInput
	}
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return booking, nil
}

func (s *BookingService) List(ctx context.Context, filter storage.BookingFilter) ([]model.Booking, error) {
	bookings, err := s.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return bookings, nil
}

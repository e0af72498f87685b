package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type VehicleFilter struct {
	Status           *model.VehicleStatus
	FuelType         *model.FuelType
	AssignedDriverID *uuid.UUID
	Plate            *string
}

type TripFilter struct {
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
	Status    *model.TripStatus
	StartFrom *time.Time
	StartTo   *time.Time
}

type MaintenanceFilter struct {
	VehicleID *uuid.UUID
	Status    *model.MaintenanceStatus
	Type      *model.MaintenanceType
	DateFrom  *time.Time
	DateTo    *time.Time
}

type BookingFilter struct {
	VehicleID *uuid.UUID
	UserID    *uuid.UUID
	Status    *model.BookingStatus
	StartFrom *time.Time
	StartTo   *time.Time
}

type VehicleStore interface {
	CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	// GetVehicleForUpdate reads the vehicle with an exclusive row lock.
	// Only valid inside WithTx; the lock is held until the unit of work ends.
	GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	DeleteVehicle(ctx context.Context, id uuid.UUID) error
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error)
	CountVehiclesByStatus(ctx context.Context) (map[model.VehicleStatus]int64, error)
}

type TripStore interface {
	CreateTrip(ctx context.Context, trip *model.Trip) error
	GetTrip(ctx context.Context, id uuid.UUID) (*model.Trip, error)
	UpdateTrip(ctx context.Context, trip *model.Trip) error
	DeleteTrip(ctx context.Context, id uuid.UUID) error
	ListTrips(ctx context.Context, filter TripFilter) ([]model.Trip, error)
	CountTrips(ctx context.Context, filter TripFilter) (int64, error)
	// SumTripDistance totals end_odometer - start_odometer over completed
	// trips started at or after since.
	SumTripDistance(ctx context.Context, since time.Time) (int64, error)
}

type MaintenanceStore interface {
	CreateMaintenance(ctx context.Context, record *model.MaintenanceRecord) error
	GetMaintenance(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error)
	UpdateMaintenance(ctx context.Context, record *model.MaintenanceRecord) error
	DeleteMaintenance(ctx context.Context, id uuid.UUID) error
	ListMaintenance(ctx context.Context, filter MaintenanceFilter) ([]model.MaintenanceRecord, error)
	// ListUpcomingMaintenance returns non-completed records ordered by date ascending.
	ListUpcomingMaintenance(ctx context.Context) ([]model.MaintenanceRecord, error)
	CountMaintenance(ctx context.Context, filter MaintenanceFilter) (int64, error)
	CountOpenMaintenance(ctx context.Context) (int64, error)
	SumMaintenanceCost(ctx context.Context, since time.Time) (float64, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	UpdateBooking(ctx context.Context, booking *model.Booking) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	CountBookings(ctx context.Context, filter BookingFilter) (int64, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

// Store is the full persistence surface. WithTx runs fn as one atomic
// unit of work: every call on the store passed to fn joins the same
// transaction, and an error from fn rolls the whole unit back.
type Store interface {
	VehicleStore
	TripStore
	MaintenanceStore
	BookingStore
	UserStore

	WithTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

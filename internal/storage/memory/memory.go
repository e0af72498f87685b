// Package memory implements storage.Store with in-process maps. It backs
// the service tests and database-less development runs.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	vehicles    map[uuid.UUID]model.Vehicle
	trips       map[uuid.UUID]model.Trip
	maintenance map[uuid.UUID]model.MaintenanceRecord
	bookings    map[uuid.UUID]model.Booking
	users       map[uuid.UUID]model.User
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		vehicles:    make(map[uuid.UUID]model.Vehicle),
		trips:       make(map[uuid.UUID]model.Trip),
		maintenance: make(map[uuid.UUID]model.MaintenanceRecord),
		bookings:    make(map[uuid.UUID]model.Booking),
		users:       make(map[uuid.UUID]model.User),
	}
}

type snapshot struct {
	vehicles    map[uuid.UUID]model.Vehicle
	trips       map[uuid.UUID]model.Trip
	maintenance map[uuid.UUID]model.MaintenanceRecord
	bookings    map[uuid.UUID]model.Booking
	users       map[uuid.UUID]model.User
}

// WithTx serializes units of work with a store-wide lock, which is
// stronger than the row locks the postgres store takes. An error from
// fn restores the pre-transaction snapshot.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := snapshot{
		vehicles:    maps.Clone(s.vehicles),
		trips:       maps.Clone(s.trips),
		maintenance: maps.Clone(s.maintenance),
		bookings:    maps.Clone(s.bookings),
		users:       maps.Clone(s.users),
	}
	s.mu.Unlock()

	if err := fn(&txView{s}); err != nil {
		s.mu.Lock()
		s.vehicles = snap.vehicles
		s.trips = snap.trips
		s.maintenance = snap.maintenance
		s.bookings = snap.bookings
		s.users = snap.users
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// txView is the store handed to WithTx callbacks. A nested WithTx joins
// the surrounding unit of work instead of deadlocking on txMu.
type txView struct {
	*Store
}

func (t *txView) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	return fn(t)
}

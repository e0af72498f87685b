package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fleet-service/internal/cache"
	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// DashboardService aggregates the fleet overview. Reads prefer the shared
// cache; every lifecycle write invalidates it, so a miss recomputes from
// the store and re-primes the cache.
type DashboardService struct {
	store   storage.Store
	summary *cache.SummaryCache
	log     zerolog.Logger
}

func NewDashboardService(store storage.Store, summary *cache.SummaryCache, log zerolog.Logger) *DashboardService {
	return &DashboardService{store: store, summary: summary, log: log}
}

func (s *DashboardService) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	if s.summary != nil {
		cached, err := s.summary.Get(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("summary cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -30)

	byStatus, err := s.store.CountVehiclesByStatus(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	inProgress := model.TripStatusInProgress
	activeTrips, err := s.store.CountTrips(ctx, storage.TripFilter{Status: &inProgress})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	completed := model.TripStatusCompleted
	trips30, err := s.store.CountTrips(ctx, storage.TripFilter{Status: &completed, StartFrom: &since})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	distance30, err := s.store.SumTripDistance(ctx, since)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	openMaintenance, err := s.store.CountOpenMaintenance(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	cost30, err := s.store.SumMaintenanceCost(ctx, since)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	pending := model.BookingStatusPending
	pendingBookings, err := s.store.CountBookings(ctx, storage.BookingFilter{Status: &pending})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	summary := &model.DashboardSummary{
		VehiclesByStatus:   byStatus,
		ActiveTrips:        activeTrips,
		TripsLast30Days:    trips30,
		DistanceLast30Days: distance30,
		OpenMaintenance:    openMaintenance,
		MaintenanceCost30:  cost30,
		PendingBookings:    pendingBookings,
		GeneratedAt:        now,
	}

	if s.summary != nil {
		if err := s.summary.Set(ctx, summary); err != nil {
			s.log.Warn().Err(err).Msg("summary cache write failed")
		}
	}
	return summary, nil
}

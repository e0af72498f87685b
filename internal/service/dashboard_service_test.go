package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage/memory"
)

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewDashboardService(store, nil, nopLogger())

	seedVehicle(t, store, model.VehicleStatusAvailable, 0)
	seedVehicle(t, store, model.VehicleStatusAvailable, 0)
	busy := seedVehicle(t, store, model.VehicleStatusInUse, 0)

	now := time.Now().UTC()
	driver := uuid.New()

	active := &model.Trip{VehicleID: busy.ID, DriverID: driver, StartAt: now.Add(-time.Hour), Status: model.TripStatusInProgress}
	if err := store.CreateTrip(ctx, active); err != nil {
		t.Fatalf("seed active trip: %v", err)
	}

	recent := &model.Trip{
		VehicleID:     busy.ID,
		DriverID:      driver,
		StartAt:       now.AddDate(0, 0, -10),
		StartOdometer: 100,
		EndOdometer:   int64Ptr(250),
		Status:        model.TripStatusCompleted,
	}
	if err := store.CreateTrip(ctx, recent); err != nil {
		t.Fatalf("seed recent trip: %v", err)
	}

	old := &model.Trip{
		VehicleID:     busy.ID,
		DriverID:      driver,
		StartAt:       now.AddDate(0, 0, -60),
		StartOdometer: 0,
		EndOdometer:   int64Ptr(999),
		Status:        model.TripStatusCompleted,
	}
	if err := store.CreateTrip(ctx, old); err != nil {
		t.Fatalf("seed old trip: %v", err)
	}

	records := []*model.MaintenanceRecord{
		{VehicleID: busy.ID, Type: model.MaintenanceTypeScheduled, Description: "inspection", Date: now.AddDate(0, 0, 2), Status: model.MaintenanceStatusPending},
		{VehicleID: busy.ID, Type: model.MaintenanceTypeRepair, Description: "brakes", Date: now.AddDate(0, 0, -5), Cost: float64Ptr(200), Status: model.MaintenanceStatusCompleted},
		{VehicleID: busy.ID, Type: model.MaintenanceTypeRepair, Description: "engine", Date: now.AddDate(0, 0, -90), Cost: float64Ptr(500), Status: model.MaintenanceStatusCompleted},
	}
	for _, r := range records {
		if err := store.CreateMaintenance(ctx, r); err != nil {
			t.Fatalf("seed maintenance: %v", err)
		}
	}

	bookings := []*model.Booking{
		{VehicleID: busy.ID, UserID: driver, StartAt: now, EndAt: now.Add(time.Hour), Status: model.BookingStatusPending},
		{VehicleID: busy.ID, UserID: driver, StartAt: now, EndAt: now.Add(time.Hour), Status: model.BookingStatusApproved},
	}
	for _, b := range bookings {
		if err := store.CreateBooking(ctx, b); err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.VehiclesByStatus[model.VehicleStatusAvailable] != 2 {
		t.Fatalf("available vehicles: got %d, want 2", summary.VehiclesByStatus[model.VehicleStatusAvailable])
	}
	if summary.VehiclesByStatus[model.VehicleStatusInUse] != 1 {
		t.Fatalf("in_use vehicles: got %d, want 1", summary.VehiclesByStatus[model.VehicleStatusInUse])
	}
	if summary.ActiveTrips != 1 {
		t.Fatalf("active trips: got %d, want 1", summary.ActiveTrips)
	}
	if summary.TripsLast30Days != 1 {
		t.Fatalf("trips last 30 days: got %d, want 1", summary.TripsLast30Days)
	}
	if summary.DistanceLast30Days != 150 {
		t.Fatalf("distance last 30 days: got %d, want 150", summary.DistanceLast30Days)
	}
	if summary.OpenMaintenance != 1 {
		t.Fatalf("open maintenance: got %d, want 1", summary.OpenMaintenance)
	}
	if summary.MaintenanceCost30 != 200 {
		t.Fatalf("maintenance cost: got %v, want 200", summary.MaintenanceCost30)
	}
	if summary.PendingBookings != 1 {
		t.Fatalf("pending bookings: got %d, want 1", summary.PendingBookings)
	}
	if summary.GeneratedAt.IsZero() {
		t.Fatal("generated_at not set")
	}
}

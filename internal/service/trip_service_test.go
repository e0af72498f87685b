package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage/memory"
)

func TestTripCreateClaimsVehicle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	notifier := &recordingNotifier{}
	svc := NewTripService(store, notifier, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 1200)

	trip, err := svc.Create(ctx, CreateTripInput{
		VehicleID: vehicle.ID.String(),
		DriverID:  driver.ID.String(),
		Purpose:   "site visit",
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if trip.Status != model.TripStatusInProgress {
		t.Fatalf("default status: got %s, want in_progress", trip.Status)
	}
	if trip.StartOdometer != 1200 {
		t.Fatalf("start odometer not taken from vehicle: got %d", trip.StartOdometer)
	}

	got, err := store.GetVehicle(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if got.Status != model.VehicleStatusInUse {
		t.Fatalf("vehicle not claimed: %s", got.Status)
	}
	if statuses := notifier.statuses(); len(statuses) != 1 || statuses[0] != model.VehicleStatusInUse {
		t.Fatalf("claim not broadcast: %v", statuses)
	}
}

func TestTripCreateVehicleBusy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusMaintenance, 0)

	_, err := svc.Create(ctx, CreateTripInput{
		VehicleID: vehicle.ID.String(),
		DriverID:  driver.ID.String(),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("busy vehicle: got %v, want ErrConflict", err)
	}

	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Status != model.VehicleStatusMaintenance {
		t.Fatalf("vehicle status changed on failed create: %s", got.Status)
	}
}

func TestTripCreatePlannedDoesNotClaim(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	trip, err := svc.Create(ctx, CreateTripInput{
		VehicleID: vehicle.ID.String(),
		DriverID:  driver.ID.String(),
		Status:    "planned",
	})
	if err != nil {
		t.Fatalf("create planned trip: %v", err)
	}
	if trip.Status != model.TripStatusPlanned {
		t.Fatalf("got status %s, want planned", trip.Status)
	}

	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Status != model.VehicleStatusAvailable {
		t.Fatalf("planned trip claimed the vehicle: %s", got.Status)
	}
}

func TestTripCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	if _, err := svc.Create(ctx, CreateTripInput{VehicleID: "not-a-uuid", DriverID: driver.ID.String()}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad vehicle id: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: uuid.New().String()}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown driver: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String(), Status: "completed"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("completed at create: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String(), StartOdometer: int64Ptr(-5)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative odometer: got %v, want ErrInvalidInput", err)
	}
}

func TestConcurrentTripStartSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, CreateTripInput{
				VehicleID: vehicle.ID.String(),
				DriverID:  driver.ID.String(),
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("got %d wins and %d conflicts, want exactly one of each", wins, conflicts)
	}

	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Status != model.VehicleStatusInUse {
		t.Fatalf("vehicle status after race: %s", got.Status)
	}
}

func TestTripCompleteRollsMileageForward(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	notifier := &recordingNotifier{}
	svc := NewTripService(store, notifier, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 1200)

	trip, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	done, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{
		Status:      strPtr("completed"),
		EndOdometer: int64Ptr(1450),
	})
	if err != nil {
		t.Fatalf("complete trip: %v", err)
	}
	if done.Status != model.TripStatusCompleted {
		t.Fatalf("trip status: %s", done.Status)
	}
	if done.EndAt == nil {
		t.Fatal("end time not defaulted on completion")
	}

	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Mileage != 1450 {
		t.Fatalf("vehicle mileage: got %d, want 1450", got.Mileage)
	}
	if got.Status != model.VehicleStatusAvailable {
		t.Fatalf("vehicle not released: %s", got.Status)
	}
	if statuses := notifier.statuses(); len(statuses) != 2 || statuses[1] != model.VehicleStatusAvailable {
		t.Fatalf("release not broadcast: %v", statuses)
	}
}

func TestTripCompleteOdometerValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 1200)

	trip, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{Status: strPtr("completed")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing end odometer: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{Status: strPtr("completed"), EndOdometer: int64Ptr(900)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("end below start: got %v, want ErrInvalidInput", err)
	}

	// Both rejections must leave the trip open and the vehicle claimed.
	current, _ := svc.Get(ctx, trip.ID.String())
	if current.Status != model.TripStatusInProgress {
		t.Fatalf("trip status after failed completion: %s", current.Status)
	}
	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Status != model.VehicleStatusInUse {
		t.Fatalf("vehicle status after failed completion: %s", got.Status)
	}
}

func TestTripPatchOdometerValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 1200)

	trip, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	// An end odometer patched onto an open trip still has to respect the
	// start reading, not just at completion time.
	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{EndOdometer: int64Ptr(50)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("patch end below start: got %v, want ErrInvalidInput", err)
	}

	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{EndOdometer: int64Ptr(1300)}); err != nil {
		t.Fatalf("patch valid end odometer: %v", err)
	}
	// Raising the start above a recorded end is the same violation.
	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{StartOdometer: int64Ptr(1400)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("patch start above end: got %v, want ErrInvalidInput", err)
	}

	current, _ := svc.Get(ctx, trip.ID.String())
	if current.StartOdometer != 1200 || current.EndOdometer == nil || *current.EndOdometer != 1300 {
		t.Fatalf("rejected patches must not persist: start=%d end=%v", current.StartOdometer, current.EndOdometer)
	}
}

func TestTripCompleteNeverLowersMileage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 1200)

	trip, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	// The odometer was corrected upward while the trip was running.
	current, _ := store.GetVehicle(ctx, vehicle.ID)
	current.Mileage = 2000
	if err := store.UpdateVehicle(ctx, current); err != nil {
		t.Fatalf("bump mileage: %v", err)
	}

	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{Status: strPtr("completed"), EndOdometer: int64Ptr(1450)}); err != nil {
		t.Fatalf("complete trip: %v", err)
	}

	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Mileage != 2000 {
		t.Fatalf("completion lowered mileage: got %d, want 2000", got.Mileage)
	}
	if got.Status != model.VehicleStatusAvailable {
		t.Fatalf("vehicle not released: %s", got.Status)
	}
}

func TestTripCancelReleasesVehicle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	trip, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	cancelled, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{Status: strPtr("cancelled")})
	if err != nil {
		t.Fatalf("cancel trip: %v", err)
	}
	if cancelled.Status != model.TripStatusCancelled {
		t.Fatalf("trip status: %s", cancelled.Status)
	}

	got, _ := store.GetVehicle(ctx, vehicle.ID)
	if got.Status != model.VehicleStatusAvailable {
		t.Fatalf("vehicle not released on cancel: %s", got.Status)
	}
}

func TestTripTerminalAmendments(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 100)

	trip, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{Status: strPtr("completed"), EndOdometer: int64Ptr(150)}); err != nil {
		t.Fatalf("complete trip: %v", err)
	}

	amended, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{
		Purpose:   strPtr("warehouse delivery"),
		FuelUsedL: float64Ptr(12.5),
	})
	if err != nil {
		t.Fatalf("amend completed trip: %v", err)
	}
	if amended.Purpose != "warehouse delivery" || amended.FuelUsedL == nil || *amended.FuelUsedL != 12.5 {
		t.Fatal("bookkeeping amendment not applied")
	}

	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{EndOdometer: int64Ptr(2000)}); !errors.Is(err, ErrConflict) {
		t.Fatalf("odometer edit on completed trip: got %v, want ErrConflict", err)
	}
	if _, err := svc.Update(ctx, trip.ID.String(), UpdateTripInput{StartAt: strPtr("2026-01-01")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("time edit on completed trip: got %v, want ErrConflict", err)
	}
}

func TestTripInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	planned, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String(), Status: "planned"})
	if err != nil {
		t.Fatalf("create planned trip: %v", err)
	}
	if _, err := svc.Update(ctx, planned.ID.String(), UpdateTripInput{Status: strPtr("completed"), EndOdometer: int64Ptr(10)}); !errors.Is(err, ErrConflict) {
		t.Fatalf("planned to completed: got %v, want ErrConflict", err)
	}

	running, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := svc.Update(ctx, running.ID.String(), UpdateTripInput{Status: strPtr("completed"), EndOdometer: int64Ptr(10)}); err != nil {
		t.Fatalf("complete trip: %v", err)
	}
	if _, err := svc.Update(ctx, running.ID.String(), UpdateTripInput{Status: strPtr("in_progress")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("reopen completed trip: got %v, want ErrConflict", err)
	}
}

func TestTripDeleteGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	vehicle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	running, err := svc.Create(ctx, CreateTripInput{VehicleID: vehicle.ID.String(), DriverID: driver.ID.String()})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if err := svc.Delete(ctx, running.ID.String()); !errors.Is(err, ErrConflict) {
		t.Fatalf("delete running trip: got %v, want ErrConflict", err)
	}

	planned, err := svc.Create(ctx, CreateTripInput{VehicleID: seedVehicle(t, store, model.VehicleStatusAvailable, 0).ID.String(), DriverID: driver.ID.String(), Status: "planned"})
	if err != nil {
		t.Fatalf("create planned trip: %v", err)
	}
	if err := svc.Delete(ctx, planned.ID.String()); err != nil {
		t.Fatalf("delete planned trip: %v", err)
	}
	if _, err := svc.Get(ctx, planned.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
}

func TestTripListActive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTripService(store, nil, nil, nopLogger())

	driver := seedUser(t, store, model.RoleModerator)
	busy := seedVehicle(t, store, model.VehicleStatusAvailable, 0)
	idle := seedVehicle(t, store, model.VehicleStatusAvailable, 0)

	if _, err := svc.Create(ctx, CreateTripInput{VehicleID: busy.ID.String(), DriverID: driver.ID.String()}); err != nil {
		t.Fatalf("create running trip: %v", err)
	}
	if _, err := svc.Create(ctx, CreateTripInput{VehicleID: idle.ID.String(), DriverID: driver.ID.String(), Status: "planned"}); err != nil {
		t.Fatalf("create planned trip: %v", err)
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("got %d active trips, want 1", len(active))
	}
	if active[0].Status != model.TripStatusInProgress {
		t.Fatalf("active trip status: %s", active[0].Status)
	}
}

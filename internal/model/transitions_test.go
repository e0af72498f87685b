package model

import "testing"

func TestTripStatusCanTransition(t *testing.T) {
	cases := []struct {
		from TripStatus
		to   TripStatus
		want bool
	}{
		{TripStatusPlanned, TripStatusInProgress, true},
		{TripStatusPlanned, TripStatusCancelled, true},
		{TripStatusPlanned, TripStatusCompleted, false},
		{TripStatusInProgress, TripStatusCompleted, true},
		{TripStatusInProgress, TripStatusCancelled, true},
		{TripStatusInProgress, TripStatusPlanned, false},
		{TripStatusCompleted, TripStatusInProgress, false},
		{TripStatusCompleted, TripStatusCancelled, false},
		{TripStatusCancelled, TripStatusInProgress, false},
		{TripStatusCancelled, TripStatusPlanned, false},
		{TripStatusInProgress, TripStatusInProgress, true},
		{TripStatusCompleted, TripStatusCompleted, true},
	}

	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("trip %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestMaintenanceStatusCanTransition(t *testing.T) {
	cases := []struct {
		from MaintenanceStatus
		to   MaintenanceStatus
		want bool
	}{
		{MaintenanceStatusPending, MaintenanceStatusInProgress, true},
		{MaintenanceStatusPending, MaintenanceStatusCompleted, true},
		{MaintenanceStatusInProgress, MaintenanceStatusCompleted, true},
		{MaintenanceStatusInProgress, MaintenanceStatusPending, false},
		{MaintenanceStatusCompleted, MaintenanceStatusPending, false},
		{MaintenanceStatusCompleted, MaintenanceStatusInProgress, false},
		{MaintenanceStatusPending, MaintenanceStatusPending, true},
	}

	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("maintenance %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestBookingStatusCanTransition(t *testing.T) {
	cases := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingStatusPending, BookingStatusApproved, true},
		{BookingStatusPending, BookingStatusDeclined, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusApproved, BookingStatusCompleted, true},
		{BookingStatusApproved, BookingStatusCancelled, true},
		{BookingStatusApproved, BookingStatusDeclined, false},
		{BookingStatusApproved, BookingStatusPending, false},
		{BookingStatusCompleted, BookingStatusPending, false},
		{BookingStatusDeclined, BookingStatusApproved, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		{BookingStatusApproved, BookingStatusApproved, true},
	}

	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("booking %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !VehicleStatusAvailable.Valid() || !VehicleStatusOutOfService.Valid() {
		t.Error("known vehicle statuses reported invalid")
	}
	if VehicleStatus("parked").Valid() {
		t.Error("unknown vehicle status reported valid")
	}
	if !FuelTypeHybrid.Valid() {
		t.Error("known fuel type reported invalid")
	}
	if FuelType("coal").Valid() {
		t.Error("unknown fuel type reported valid")
	}
	if TripStatus("PLANNED").Valid() {
		t.Error("status comparison must be case sensitive")
	}
	if !RoleAdmin.Valid() || UserRole("viewer").Valid() {
		t.Error("user role validation mismatch")
	}
}

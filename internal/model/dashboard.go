package model

import "time"

// DashboardSummary is the aggregated fleet overview served by the
// dashboard endpoint and cached between lifecycle writes.
type DashboardSummary struct {
	VehiclesByStatus    map[VehicleStatus]int64 `json:"vehicles_by_status"`
	ActiveTrips         int64                   `json:"active_trips"`
	TripsLast30Days     int64                   `json:"trips_last_30_days"`
	DistanceLast30Days  int64                   `json:"distance_last_30_days"`
	OpenMaintenance     int64                   `json:"open_maintenance"`
	MaintenanceCost30   float64                 `json:"maintenance_cost_last_30_days"`
	PendingBookings     int64                   `json:"pending_bookings"`
	GeneratedAt         time.Time               `json:"generated_at"`
}
